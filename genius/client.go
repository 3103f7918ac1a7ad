package genius

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidArgument = errors.New("title and credential are required")
	ErrSearchFailed    = errors.New("genius search failed")
)

// SearchError classifies a failed search call. StatusCode is zero when the
// request never got a response.
type SearchError struct {
	StatusCode int
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: HTTP %d", ErrSearchFailed, e.StatusCode)
	}
	return fmt.Sprintf("%v: %v", ErrSearchFailed, e.Err)
}

func (e *SearchError) Unwrap() []error {
	return []error{ErrSearchFailed, e.Err}
}

type Client struct {
	apiURL     string
	httpClient *http.Client
}

func New(apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns the first page of hits for title, in API order. Zero hits or
// an unexpected payload shape yield an empty list; transport and HTTP status
// failures come back as *SearchError.
func (c *Client) Search(ctx context.Context, title, credential string) ([]SearchResult, error) {
	logger := log.WithFields(log.Fields{"module": "genius", "method": "Search"})

	span := sentry.StartSpan(ctx, "genius.search")
	span.Description = "Search Genius API"
	span.SetTag("query", title)
	defer span.Finish()

	title = strings.TrimSpace(title)
	if title == "" || credential == "" {
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, ErrInvalidArgument
	}

	params := url.Values{}
	params.Set("q", title)
	reqURL := c.apiURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, reqURL, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, &SearchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")

	logger.Tracef("searching genius for %q", title)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Errorf("search request failed: %v", err)
		span.Status = sentry.SpanStatusUnavailable
		return nil, &SearchError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logger.Warnf("genius search returned status %d", resp.StatusCode)
		span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode)
		return nil, &SearchError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			logger.Errorf("failed to decode search response: %v", err)
			span.Status = sentry.SpanStatusInternalError
			return nil, &SearchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		// Fields of the wrong type are skipped; whatever decoded is still usable.
		logger.Warnf("unexpected field shape in search response: %v", err)
	}

	results := payload.results()
	logger.Debugf("genius returned %d hits for %q", len(results), title)

	span.Status = sentry.SpanStatusOK
	span.SetData("hits", len(results))
	return results, nil
}
