package lyrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const (
	// excerptLength is how much raw markup a failed extraction reports back.
	excerptLength = 500
	maxPageBytes  = 8 << 20

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	ErrFetchFailed    = errors.New("failed to fetch lyrics page")
	ErrLyricsNotFound = errors.New("no lyrics found on page")
)

// Result is the outcome of one extraction. Text is empty whenever Err is set;
// StatusCode and Excerpt carry enough context to diagnose the failure by hand.
type Result struct {
	URL        string
	Text       string
	Strategy   string
	StatusCode int
	Excerpt    string
	Err        error
}

func (r Result) Found() bool {
	return r.Text != ""
}

type Extractor struct {
	siteURL    string
	httpClient *http.Client
	strategies []Strategy
}

func NewExtractor(siteURL string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Extractor{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		strategies: Strategies,
	}
}

// Locator turns a site-relative path into an absolute page URL. Absolute URLs
// pass through untouched.
func (e *Extractor) Locator(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.siteURL + path
}

// Extract fetches the page at locator and runs the strategy chain over it.
// Failures never escape as errors from this call; they are reported in the
// returned Result with empty Text.
func (e *Extractor) Extract(ctx context.Context, locator string) Result {
	pageURL := e.Locator(locator)
	logger := log.WithFields(log.Fields{"module": "lyrics", "method": "Extract", "url": pageURL})

	span := sentry.StartSpan(ctx, "lyrics.extract")
	span.Description = "Scrape lyrics page"
	span.SetTag("url", pageURL)
	defer span.Finish()

	result := Result{URL: pageURL}

	body, status, err := e.fetch(span.Context(), pageURL)
	result.StatusCode = status
	if err != nil {
		logger.Errorf("failed to fetch lyrics page: %v", err)
		span.Status = sentry.SpanStatusUnavailable
		if status != 0 {
			span.Status = sentry.HTTPtoSpanStatus(status)
		}
		result.Err = err
		return result
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Errorf("failed to parse HTML: %v", err)
		span.Status = sentry.SpanStatusInternalError
		result.Excerpt = Excerpt(string(body), excerptLength)
		result.Err = fmt.Errorf("%w: parse HTML: %v", ErrLyricsNotFound, err)
		return result
	}

	text, strategy := Apply(doc, e.strategies)
	if text == "" {
		result.Excerpt = Excerpt(string(body), excerptLength)
		result.Err = ErrLyricsNotFound
		logger.Warnf("no lyrics selector matched; markup starts with: %q", result.Excerpt)
		span.Status = sentry.SpanStatusNotFound
		return result
	}

	logger.Debugf("extracted %d bytes of lyrics using %s", len(text), strategy)
	result.Text = text
	result.Strategy = strategy
	span.Status = sentry.SpanStatusOK
	span.SetData("strategy", strategy)
	return result
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	// Genius rejects clients that don't look like a browser.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	return body, resp.StatusCode, nil
}

// Excerpt returns at most n runes from the start of s.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
