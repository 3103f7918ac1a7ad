package pages

import (
	"encoding/base64"
	"html/template"

	"lyricsexplorer/database"
)

type Candidate struct {
	Index    int
	Label    string
	Selected bool
}

// Explorer is everything the explorer page can show. Zero values hide the
// corresponding section.
type Explorer struct {
	Title      string
	AskToken   bool
	Token      string
	Candidates []Candidate
	NeedChoice bool
	Song       string
	SongURL    string
	Lyrics     string
	Strategy   string
	Image      template.URL
	Error      string
	StatusCode int
	Excerpt    string
	History    []database.LookupRecord
}

// PNGDataURL wraps encoded PNG bytes so the template can inline them.
func PNGDataURL(png []byte) template.URL {
	if len(png) == 0 {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

var Templates = template.Must(template.New("explorer").Funcs(template.FuncMap{
	"stamp": func(r database.LookupRecord) string {
		return r.LookedUpAt.Local().Format("Jan 2 15:04")
	},
}).Parse(explorer))

const explorer = `<!DOCTYPE html>
<html>
<head>
    <title>Lyrics Explorer</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 860px;
            margin: 0 auto;
            padding: 20px;
        }
        textarea {
            width: 100%;
            height: 300px;
        }
        pre {
            white-space: pre-wrap;
            word-wrap: break-word;
            background: #f4f4f4;
            padding: 8px;
        }
        .error {
            color: #a00;
        }
        img {
            max-width: 100%;
        }
    </style>
</head>
<body>
    <h1>Lyrics Explorer</h1>
    <form method="post" action="/lookup">
        <label>Song title <input type="text" name="title" value="{{.Title}}"></label>
        {{if .AskToken}}<label>Genius API token <input type="password" name="token" value="{{.Token}}"></label>{{end}}
        {{if .NeedChoice}}
        <label>Select a song
            <select name="choice">
                {{range .Candidates}}<option value="{{.Index}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
                {{end}}
            </select>
        </label>
        {{end}}
        <button type="submit">Explore</button>
    </form>

    {{if .Error}}
    <div class="error">
        <p>{{.Error}}{{if .StatusCode}} (status {{.StatusCode}}){{end}}</p>
        {{if .Excerpt}}<p>Page content did not contain lyrics markup. First part of the page:</p>
        <pre>{{.Excerpt}}</pre>{{end}}
    </div>
    {{end}}

    {{if .Song}}
    <h2>{{.Song}}</h2>
    {{if .SongURL}}<p><a href="{{.SongURL}}">{{.SongURL}}</a>{{if .Strategy}} ({{.Strategy}}){{end}}</p>{{end}}
    {{end}}
    {{if .Lyrics}}<textarea readonly>{{.Lyrics}}</textarea>{{end}}
    {{if .Image}}<h2>Word cloud</h2>
    <img src="{{.Image}}" width="800" height="400" alt="word cloud">{{end}}

    {{if .History}}
    <h2>Recent lookups</h2>
    <ul>
        {{range .History}}<li>{{stamp .}}: {{.Query}}{{if .Title}} &rarr; {{.Title}} by {{.Artist}}{{end}}{{if not .Found}} (no lyrics){{end}}</li>
        {{end}}
    </ul>
    {{end}}
</body>
</html>`
