package genius

import "strings"

// SearchResult is one candidate song returned by the search API
type SearchResult struct {
	Title  string
	Artist string
	Path   string // site-relative, e.g. "/Taylor-swift-shake-it-off-lyrics"
}

// Label is the text shown in the candidate selection control
func (r SearchResult) Label() string {
	return r.Title + " — " + r.Artist
}

// URL joins the site origin and the result's path into the lyrics page locator
func (r SearchResult) URL(siteOrigin string) string {
	origin := strings.TrimSuffix(siteOrigin, "/")
	if r.Path == "" {
		return origin
	}
	if !strings.HasPrefix(r.Path, "/") {
		return origin + "/" + r.Path
	}
	return origin + r.Path
}

// searchResponse mirrors the parts of the search payload we read. Pointers let
// us tell a missing object apart from an empty one without failing decoding.
type searchResponse struct {
	Response *struct {
		Hits []struct {
			Result *struct {
				Title         string `json:"title"`
				Path          string `json:"path"`
				PrimaryArtist *struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

func (s searchResponse) results() []SearchResult {
	if s.Response == nil {
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, len(s.Response.Hits))
	for _, hit := range s.Response.Hits {
		var r SearchResult
		if hit.Result != nil {
			r.Title = hit.Result.Title
			r.Path = hit.Result.Path
			if hit.Result.PrimaryArtist != nil {
				r.Artist = hit.Result.PrimaryArtist.Name
			}
		}
		results = append(results, r)
	}
	return results
}
