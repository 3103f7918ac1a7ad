package lyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newPageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0") {
			http.Error(w, "bots not welcome", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, `<html><body><div class="Lyrics__Container">A<br>B</div></body></html>`)
	e := NewExtractor(srv.URL, time.Second)

	res := e.Extract(context.Background(), "/Taylor-swift-shake-it-off-lyrics")
	if res.Err != nil {
		t.Fatalf("Extract() error = %v", res.Err)
	}
	if res.Text != "A\nB" {
		t.Errorf("Text = %q, want %q", res.Text, "A\nB")
	}
	if res.Strategy != "container-class" {
		t.Errorf("Strategy = %q", res.Strategy)
	}
	if res.URL != srv.URL+"/Taylor-swift-shake-it-off-lyrics" {
		t.Errorf("URL = %q", res.URL)
	}
	if !res.Found() {
		t.Error("Found() = false")
	}
}

func TestExtractDataAttributeFallback(t *testing.T) {
	srv := newPageServer(t, http.StatusOK,
		`<div data-lyrics-container="true">Verse1</div><div data-lyrics-container="true">Verse2</div>`)
	res := NewExtractor(srv.URL, time.Second).Extract(context.Background(), srv.URL+"/song")
	if res.Text != "Verse1\nVerse2" {
		t.Errorf("Text = %q, want %q", res.Text, "Verse1\nVerse2")
	}
}

func TestExtractNoMatch(t *testing.T) {
	page := "<html><head><title>Genius</title></head><body>" + strings.Repeat("x", 1000) + "</body></html>"
	srv := newPageServer(t, http.StatusOK, page)

	res := NewExtractor(srv.URL, time.Second).Extract(context.Background(), "/missing")
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
	if !errors.Is(res.Err, ErrLyricsNotFound) {
		t.Errorf("Err = %v, want ErrLyricsNotFound", res.Err)
	}
	if len(res.Excerpt) != excerptLength {
		t.Errorf("len(Excerpt) = %d, want %d", len(res.Excerpt), excerptLength)
	}
	if !strings.HasPrefix(page, res.Excerpt) {
		t.Errorf("Excerpt is not a prefix of the page: %q", res.Excerpt)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
}

func TestExtractHTTPFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newPageServer(t, tt.status, `<div class="Lyrics__Container">should not be read</div>`)
			res := NewExtractor(srv.URL, time.Second).Extract(context.Background(), "/x")
			if res.Text != "" {
				t.Errorf("Text = %q, want empty", res.Text)
			}
			if !errors.Is(res.Err, ErrFetchFailed) {
				t.Errorf("Err = %v, want ErrFetchFailed", res.Err)
			}
			if res.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tt.status)
			}
		})
	}
}

func TestExtractTransportFailure(t *testing.T) {
	srv := newPageServer(t, http.StatusOK, "")
	srv.Close()

	res := NewExtractor(srv.URL, time.Second).Extract(context.Background(), "/x")
	if !errors.Is(res.Err, ErrFetchFailed) {
		t.Errorf("Err = %v, want ErrFetchFailed", res.Err)
	}
	if res.StatusCode != 0 || res.Text != "" {
		t.Errorf("Result = %+v", res)
	}
}

func TestLocator(t *testing.T) {
	e := NewExtractor("https://genius.com/", time.Second)
	tests := []struct {
		in   string
		want string
	}{
		{"/a-lyrics", "https://genius.com/a-lyrics"},
		{"a-lyrics", "https://genius.com/a-lyrics"},
		{"https://genius.com/b-lyrics", "https://genius.com/b-lyrics"},
		{"http://127.0.0.1/c", "http://127.0.0.1/c"},
	}
	for _, tt := range tests {
		if got := e.Locator(tt.in); got != tt.want {
			t.Errorf("Locator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 8, "truncate"},
		{"héllo wörld", 4, "héll"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.in, tt.n); got != tt.want {
			t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
