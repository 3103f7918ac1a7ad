package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// Source is a secondary place to look for lyrics when the page scrape comes
// back empty.
type Source interface {
	Search(ctx context.Context, artist, title string) (string, error)
}

type lrclibResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

var syncedTimestamp = regexp.MustCompile(`\[\d+:\d+\.\d+\] ?`)

type LrclibClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLrclib(baseURL string, timeout time.Duration) *LrclibClient {
	if baseURL == "" {
		baseURL = "https://lrclib.net"
	}
	return &LrclibClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns plain lyrics for the best lrclib match, or "" when nothing
// matched. Synced lyrics are used with their timestamps stripped.
func (c *LrclibClient) Search(ctx context.Context, artist, title string) (string, error) {
	span := sentry.StartSpan(ctx, "lrclib.search")
	span.Description = "Search lrclib"
	defer span.Finish()

	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}
	u := fmt.Sprintf("%s/api/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode)
		return "", fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []lrclibResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return "", err
	}

	span.Status = sentry.SpanStatusOK
	if len(results) == 0 {
		return "", nil
	}

	res := results[0]
	log.WithFields(log.Fields{"module": "lyrics", "method": "LrclibClient.Search"}).
		Debugf("lrclib matched %s — %s", res.TrackName, res.ArtistName)

	if res.PlainLyrics != "" {
		return strings.TrimSpace(res.PlainLyrics), nil
	}
	if res.SyncedLyrics != "" {
		return strings.TrimSpace(syncedTimestamp.ReplaceAllString(res.SyncedLyrics, "")), nil
	}
	return "", nil
}
