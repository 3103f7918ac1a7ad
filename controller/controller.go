package controller

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"lyricsexplorer/database"
	"lyricsexplorer/genius"
	"lyricsexplorer/lyrics"
	"lyricsexplorer/sentryhelper"
	"lyricsexplorer/wordcloud"
)

var (
	ErrNoResults         = errors.New("no songs matched the title")
	ErrInvalidChoice     = errors.New("selected song is out of range")
	ErrChoiceRequired    = errors.New("several songs matched; pick one")
	ErrLyricsUnavailable = errors.New("lyrics unavailable")
)

type Resolver interface {
	Search(ctx context.Context, title, credential string) ([]genius.SearchResult, error)
}

type Extractor interface {
	Extract(ctx context.Context, locator string) lyrics.Result
}

type Visualizer interface {
	Visualize(text string) (*wordcloud.Cloud, error)
}

type Recorder interface {
	Record(r database.LookupRecord) error
}

// Selector picks one candidate. It is only called with a non-empty list.
type Selector func(candidates []genius.SearchResult) (int, error)

// FirstChoice always takes the top hit.
func FirstChoice(candidates []genius.SearchResult) (int, error) {
	return 0, nil
}

// AskWhenAmbiguous takes a lone hit and otherwise defers to the user.
func AskWhenAmbiguous(candidates []genius.SearchResult) (int, error) {
	if len(candidates) == 1 {
		return 0, nil
	}
	return -1, ErrChoiceRequired
}

// Choose selects index regardless of how many candidates there are.
func Choose(index int) Selector {
	return func([]genius.SearchResult) (int, error) {
		return index, nil
	}
}

type Request struct {
	Title      string
	Credential string
	Selector   Selector // nil means FirstChoice
}

// Lookup is everything one user action produced. It is returned alongside
// errors so the UI can still show the candidates or the failed page excerpt.
type Lookup struct {
	Title      string
	Candidates []genius.SearchResult
	Selected   int
	Song       genius.SearchResult
	Lyrics     lyrics.Result
	Cloud      *wordcloud.Cloud
	PNG        []byte
}

type Controller struct {
	resolver   Resolver
	extractor  Extractor
	visualizer Visualizer
	fallback   lyrics.Source
	history    Recorder
}

type Option func(*Controller)

// WithFallback consults src when the page scrape yields nothing.
func WithFallback(src lyrics.Source) Option {
	return func(c *Controller) { c.fallback = src }
}

// WithHistory records each lookup that reached the extraction step.
func WithHistory(r Recorder) Option {
	return func(c *Controller) { c.history = r }
}

func NewController(resolver Resolver, extractor Extractor, visualizer Visualizer, opts ...Option) *Controller {
	c := &Controller{
		resolver:   resolver,
		extractor:  extractor,
		visualizer: visualizer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search resolves a title without going further.
func (c *Controller) Search(ctx context.Context, title, credential string) ([]genius.SearchResult, error) {
	return c.resolver.Search(ctx, title, credential)
}

// Lookup runs resolve, select, extract and visualize in sequence. The first
// failing step ends the pipeline. Lyrics with no countable words come back
// with an error wrapping wordcloud.ErrEmptyText and no image.
func (c *Controller) Lookup(ctx context.Context, req Request) (*Lookup, error) {
	logger := log.WithFields(log.Fields{"module": "controller", "method": "Lookup", "title": req.Title})
	out := &Lookup{Title: req.Title, Selected: -1}

	candidates, err := c.resolver.Search(ctx, req.Title, req.Credential)
	if err != nil {
		logger.Errorf("search failed: %v", err)
		if !errors.Is(err, genius.ErrInvalidArgument) {
			sentryhelper.CaptureException(ctx, err)
		}
		return out, err
	}
	out.Candidates = candidates
	sentryhelper.AddBreadcrumb(ctx, "search", fmt.Sprintf("%d candidates for %q", len(candidates), req.Title))

	if len(candidates) == 0 {
		logger.Info("no candidates")
		return out, ErrNoResults
	}

	selector := req.Selector
	if selector == nil {
		selector = FirstChoice
	}
	idx, err := selector(candidates)
	if err != nil {
		return out, err
	}
	if idx < 0 || idx >= len(candidates) {
		return out, fmt.Errorf("%w: %d of %d", ErrInvalidChoice, idx, len(candidates))
	}
	out.Selected = idx
	out.Song = candidates[idx]
	logger.Debugf("selected %s", out.Song.Label())

	out.Lyrics = c.extractor.Extract(ctx, out.Song.Path)
	if !out.Lyrics.Found() && c.fallback != nil {
		c.tryFallback(ctx, out)
	}
	c.record(out)

	if !out.Lyrics.Found() {
		if errors.Is(out.Lyrics.Err, lyrics.ErrLyricsNotFound) {
			sentryhelper.CaptureMessage(ctx, fmt.Sprintf("no lyrics markup at %s", out.Lyrics.URL))
		}
		return out, fmt.Errorf("%w: %w", ErrLyricsUnavailable, out.Lyrics.Err)
	}

	cloud, err := c.visualizer.Visualize(out.Lyrics.Text)
	if errors.Is(err, wordcloud.ErrEmptyText) {
		logger.Info("lyrics have nothing to visualize")
		return out, fmt.Errorf("lyrics of %s: %w", out.Song.Label(), err)
	}
	if err != nil {
		logger.Errorf("failed to render word cloud: %v", err)
		sentryhelper.CaptureException(ctx, err)
		return out, err
	}
	out.Cloud = cloud

	if out.PNG, err = wordcloud.EncodePNG(cloud.Image); err != nil {
		logger.Errorf("failed to encode word cloud: %v", err)
		return out, fmt.Errorf("encode word cloud: %w", err)
	}
	return out, nil
}

func (c *Controller) tryFallback(ctx context.Context, out *Lookup) {
	logger := log.WithFields(log.Fields{"module": "controller", "method": "tryFallback"})

	text, err := c.fallback.Search(ctx, out.Song.Artist, out.Song.Title)
	if err != nil {
		logger.Warnf("fallback lyrics source failed: %v", err)
		return
	}
	if text == "" {
		return
	}
	logger.Debugf("fallback source supplied lyrics for %s", out.Song.Label())
	out.Lyrics.Text = text
	out.Lyrics.Strategy = "lrclib"
	out.Lyrics.Err = nil
}

func (c *Controller) record(out *Lookup) {
	if c.history == nil {
		return
	}
	rec := database.LookupRecord{
		Query:    out.Title,
		Title:    out.Song.Title,
		Artist:   out.Song.Artist,
		Path:     out.Song.Path,
		Found:    out.Lyrics.Found(),
		Strategy: out.Lyrics.Strategy,
	}
	if rec.Found {
		rec.WordCount = len(wordcloud.Tokenize(out.Lyrics.Text))
	}
	if err := c.history.Record(rec); err != nil {
		log.Warnf("failed to record lookup history: %v", err)
	}
}

// Render visualizes arbitrary text and returns it as PNG bytes.
func (c *Controller) Render(text string) ([]byte, error) {
	cloud, err := c.visualizer.Visualize(text)
	if err != nil {
		return nil, err
	}
	return wordcloud.EncodePNG(cloud.Image)
}
