//go:build e2e

package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const resultsPage = `<!doctype html><html><body>
<div class="result"><a class="result__a" href="https://example.com/a">Northwind funding</a>
  <div class="result__snippet">Northwind raised 40M USD.</div></div>
<div class="result"><a class="result__a" href="https://example.com/b">Robot market</a></div>
<div class="result"><span>no link</span></div>
</body></html>`

func TestBrowserSearch_ScrapesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			http.Error(w, "missing q", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	b := NewBrowserSearch(Options{FeedURL: srv.URL, Limit: 5, Timeout: 30 * time.Second})
	got, err := b.WebSearch(context.Background(), "northwind")
	if err != nil {
		t.Fatalf("WebSearch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(got), got)
	}
	if got[0].Snippet != "Northwind funding. Northwind raised 40M USD." || got[0].Source != "https://example.com/a" {
		t.Errorf("first result = %+v", got[0])
	}
}
