package genius

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newSearchServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []SearchResult
	}{
		{
			name: "single hit",
			body: `{"response":{"hits":[{"result":{"title":"Shake It Off","primary_artist":{"name":"Taylor Swift"},"path":"/Taylor-swift-shake-it-off-lyrics"}}]}}`,
			want: []SearchResult{{Title: "Shake It Off", Artist: "Taylor Swift", Path: "/Taylor-swift-shake-it-off-lyrics"}},
		},
		{
			name: "order preserved without dedup",
			body: `{"response":{"hits":[{"result":{"title":"B","primary_artist":{"name":"x"},"path":"/b"}},{"result":{"title":"A","primary_artist":{"name":"y"},"path":"/a"}},{"result":{"title":"B","primary_artist":{"name":"x"},"path":"/b"}}]}}`,
			want: []SearchResult{{"B", "x", "/b"}, {"A", "y", "/a"}, {"B", "x", "/b"}},
		},
		{
			name: "missing fields default to empty",
			body: `{"response":{"hits":[{"result":{"title":"Only Title"}},{}]}}`,
			want: []SearchResult{{Title: "Only Title"}, {}},
		},
		{
			name: "zero hits",
			body: `{"response":{"hits":[]}}`,
			want: []SearchResult{},
		},
		{
			name: "missing response",
			body: `{"meta":{"status":200}}`,
			want: []SearchResult{},
		},
		{
			name: "hits of the wrong type",
			body: `{"response":{"hits":{"unexpected":true}}}`,
			want: []SearchResult{},
		},
		{
			name: "title of the wrong type",
			body: `{"response":{"hits":[{"result":{"title":42,"primary_artist":{"name":"Taylor Swift"},"path":"/p"}}]}}`,
			want: []SearchResult{{Artist: "Taylor Swift", Path: "/p"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSearchServer(t, http.StatusOK, tt.body)
			c := New(srv.URL, time.Second)

			got, err := c.Search(context.Background(), "Shake It Off", "secret")
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got == nil {
				t.Fatal("Search() returned nil slice, want empty list")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSearchSendsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"response":{"hits":[]}}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL+"/", time.Second).Search(context.Background(), "  Love Story ", "t"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "Love Story" {
		t.Errorf("q = %q, want %q", gotQuery, "Love Story")
	}
}

func TestSearchFailures(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := newSearchServer(t, http.StatusInternalServerError, `oops`)
		_, err := New(srv.URL, time.Second).Search(context.Background(), "x", "secret")
		if !errors.Is(err, ErrSearchFailed) {
			t.Fatalf("error = %v, want ErrSearchFailed", err)
		}
		var searchErr *SearchError
		if !errors.As(err, &searchErr) || searchErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("error = %#v, want SearchError with status 500", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := newSearchServer(t, http.StatusOK, `{}`)
		_, err := New(srv.URL, time.Second).Search(context.Background(), "x", "wrong")
		var searchErr *SearchError
		if !errors.As(err, &searchErr) || searchErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("error = %v, want SearchError with status 401", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := newSearchServer(t, http.StatusOK, `<html>not json`)
		_, err := New(srv.URL, time.Second).Search(context.Background(), "x", "secret")
		if !errors.Is(err, ErrSearchFailed) {
			t.Errorf("error = %v, want ErrSearchFailed", err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		srv := newSearchServer(t, http.StatusOK, `{}`)
		srv.Close()
		_, err := New(srv.URL, time.Second).Search(context.Background(), "x", "secret")
		var searchErr *SearchError
		if !errors.As(err, &searchErr) || searchErr.StatusCode != 0 {
			t.Errorf("error = %v, want transport SearchError", err)
		}
	})

	t.Run("invalid arguments", func(t *testing.T) {
		c := New("http://127.0.0.1:1", time.Second)
		if _, err := c.Search(context.Background(), " ", "secret"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("empty title error = %v", err)
		}
		if _, err := c.Search(context.Background(), "x", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("empty credential error = %v", err)
		}
	})
}

func TestSearchResultHelpers(t *testing.T) {
	r := SearchResult{Title: "Shake It Off", Artist: "Taylor Swift", Path: "/Taylor-swift-shake-it-off-lyrics"}
	if got := r.Label(); got != "Shake It Off — Taylor Swift" {
		t.Errorf("Label() = %q", got)
	}

	tests := []struct {
		origin string
		path   string
		want   string
	}{
		{"https://genius.com", "/a-lyrics", "https://genius.com/a-lyrics"},
		{"https://genius.com/", "/a-lyrics", "https://genius.com/a-lyrics"},
		{"https://genius.com", "a-lyrics", "https://genius.com/a-lyrics"},
		{"https://genius.com", "", "https://genius.com"},
	}
	for _, tt := range tests {
		if got := (SearchResult{Path: tt.path}).URL(tt.origin); got != tt.want {
			t.Errorf("URL(%q) with path %q = %q, want %q", tt.origin, tt.path, got, tt.want)
		}
	}
}
