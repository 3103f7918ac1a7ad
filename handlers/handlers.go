package handlers

// handlers turn browser and API requests into explorer lookups and render
// the results. Failures are rendered inline rather than aborting the request.

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"lyricsexplorer/config"
	"lyricsexplorer/controller"
	"lyricsexplorer/database"
	"lyricsexplorer/genius"
	"lyricsexplorer/lyrics"
	"lyricsexplorer/pages"
	"lyricsexplorer/sentryhelper"
	"lyricsexplorer/wordcloud"
)

const maxWordCloudBody = 1 << 20

type HistoryReader interface {
	Recent(limit int) ([]database.LookupRecord, error)
}

type Manager struct {
	Controller   *controller.Controller
	History      HistoryReader
	Genius       config.GeniusConfig
	DefaultTitle string
	HistoryLimit int
}

type searchItem struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Path   string `json:"path"`
	Label  string `json:"label"`
}

// NewManager wires the handlers. history may be nil when lookups are not kept.
func NewManager(ctl *controller.Controller, history HistoryReader, cfg *config.ConfigStruct) *Manager {
	return &Manager{
		Controller:   ctl,
		History:      history,
		Genius:       cfg.Genius,
		DefaultTitle: cfg.Options.DefaultSongTitle,
		HistoryLimit: cfg.History.Limit,
	}
}

func (m *Manager) Register(router gin.IRouter) {
	router.GET("/", m.Index)
	router.POST("/lookup", m.Lookup)
	router.GET("/api/search", m.Search)
	router.POST("/api/wordcloud", m.WordCloud)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func (m *Manager) Index(c *gin.Context) {
	page := m.newPage(m.DefaultTitle)
	c.HTML(http.StatusOK, "explorer", page)
}

func (m *Manager) Lookup(c *gin.Context) {
	logger := log.WithFields(log.Fields{"module": "handlers", "method": "Lookup"})

	title := strings.TrimSpace(c.PostForm("title"))
	prompted := strings.TrimSpace(c.PostForm("token"))
	page := m.newPage(title)
	if page.AskToken {
		page.Token = prompted
	}

	credential, err := m.Genius.Credential(prompted)
	if err != nil {
		m.renderError(c, page, err)
		return
	}

	selector := controller.AskWhenAmbiguous
	if choice := c.PostForm("choice"); choice != "" {
		idx, err := strconv.Atoi(choice)
		if err != nil {
			m.renderError(c, page, fmt.Errorf("%w: %q", controller.ErrInvalidChoice, choice))
			return
		}
		selector = controller.Choose(idx)
	}

	ctx, transaction := sentryhelper.StartLookupTransaction(c.Request.Context(), "lookup", title)
	defer transaction.Finish()

	out, err := m.Controller.Lookup(ctx, controller.Request{
		Title:      title,
		Credential: credential,
		Selector:   selector,
	})
	fillPage(page, out)
	// the lookup may have added a row
	page.History = m.recent()

	if errors.Is(err, controller.ErrChoiceRequired) {
		c.HTML(http.StatusOK, "explorer", page)
		return
	}
	if errors.Is(err, wordcloud.ErrEmptyText) {
		// the lyrics are still worth showing
		page.Error = describe(err)
		c.HTML(http.StatusOK, "explorer", page)
		return
	}
	if err != nil {
		logger.Infof("lookup for %q ended early: %v", title, err)
		m.renderError(c, page, err)
		return
	}
	c.HTML(http.StatusOK, "explorer", page)
}

func (m *Manager) Search(c *gin.Context) {
	credential, err := m.Genius.Credential(c.GetHeader("X-Genius-Token"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	results, err := m.Controller.Search(c.Request.Context(), c.Query("q"), credential)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	items := make([]searchItem, 0, len(results))
	for _, r := range results {
		items = append(items, searchItem{Title: r.Title, Artist: r.Artist, Path: r.Path, Label: r.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (m *Manager) WordCloud(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWordCloudBody))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
		return
	}

	png, err := m.Controller.Render(string(body))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (m *Manager) newPage(title string) *pages.Explorer {
	return &pages.Explorer{
		Title:    title,
		AskToken: !m.Genius.HasToken(),
		History:  m.recent(),
	}
}

func (m *Manager) recent() []database.LookupRecord {
	if m.History == nil {
		return nil
	}
	records, err := m.History.Recent(m.HistoryLimit)
	if err != nil {
		log.Warnf("failed to load lookup history: %v", err)
		return nil
	}
	return records
}

func (m *Manager) renderError(c *gin.Context, page *pages.Explorer, err error) {
	page.Error = describe(err)

	var searchErr *genius.SearchError
	if errors.As(err, &searchErr) {
		page.StatusCode = searchErr.StatusCode
	}
	c.HTML(statusFor(err), "explorer", page)
}

func fillPage(page *pages.Explorer, out *controller.Lookup) {
	if out == nil {
		return
	}
	if len(out.Candidates) > 1 {
		page.NeedChoice = true
		for i, r := range out.Candidates {
			page.Candidates = append(page.Candidates, pages.Candidate{
				Index:    i,
				Label:    r.Label(),
				Selected: i == out.Selected,
			})
		}
	}
	if out.Selected < 0 {
		return
	}

	page.Song = out.Song.Label()
	page.SongURL = out.Lyrics.URL
	page.Lyrics = out.Lyrics.Text
	page.Strategy = out.Lyrics.Strategy
	page.Excerpt = out.Lyrics.Excerpt
	if errors.Is(out.Lyrics.Err, lyrics.ErrFetchFailed) {
		page.StatusCode = out.Lyrics.StatusCode
	}
	page.Image = pages.PNGDataURL(out.PNG)
}

func describe(err error) string {
	switch {
	case errors.Is(err, config.ErrMissingCredential):
		return "Enter a Genius API token to search."
	case errors.Is(err, genius.ErrInvalidArgument):
		return "Enter a song title to search."
	case errors.Is(err, genius.ErrSearchFailed):
		return "The song search failed."
	case errors.Is(err, controller.ErrNoResults):
		return "No songs matched that title."
	case errors.Is(err, controller.ErrInvalidChoice):
		return "That song is not in the list."
	case errors.Is(err, lyrics.ErrFetchFailed):
		return "The lyrics page could not be fetched."
	case errors.Is(err, lyrics.ErrLyricsNotFound):
		return "No lyrics were found on the page."
	case errors.Is(err, wordcloud.ErrEmptyText):
		return "The lyrics have no words left to draw once common words are removed."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, genius.ErrInvalidArgument), errors.Is(err, controller.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, wordcloud.ErrEmptyText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, genius.ErrSearchFailed), errors.Is(err, controller.ErrLyricsUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
