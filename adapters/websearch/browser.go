package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"dealscout/internal/evidence"
)

// DefaultBrowserURL is a script-free search results page.
const DefaultBrowserURL = "https://html.duckduckgo.com/html/"

// Selectors locate results on the rendered page.
type Selectors struct {
	Result  string
	Snippet string
	Link    string
}

// DefaultSelectors match DefaultBrowserURL's markup.
var DefaultSelectors = Selectors{
	Result:  ".result",
	Snippet: ".result__snippet",
	Link:    "a.result__a",
}

// BrowserSearch renders a search page in headless Chrome and scrapes the
// result list. It implements evidence.WebSearcher.
type BrowserSearch struct {
	BaseURL   string
	Selectors Selectors
	Limit     int
	Timeout   time.Duration
	// ExecOptions override the Chrome allocator flags.
	ExecOptions []chromedp.ExecAllocatorOption
}

// NewBrowserSearch returns a BrowserSearch for opts. opts.FeedURL, when
// set, replaces the search page URL.
func NewBrowserSearch(opts Options) *BrowserSearch {
	b := &BrowserSearch{
		BaseURL:   opts.FeedURL,
		Selectors: DefaultSelectors,
		Limit:     opts.Limit,
		Timeout:   opts.Timeout,
	}
	if b.BaseURL == "" {
		b.BaseURL = DefaultBrowserURL
	}
	if b.Limit <= 0 {
		b.Limit = defaultLimit
	}
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}
	return b
}

func (b *BrowserSearch) allocatorOptions() []chromedp.ExecAllocatorOption {
	if len(b.ExecOptions) > 0 {
		return b.ExecOptions
	}
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
}

// scrapeJS returns [{snippet, source}] for the first n result nodes.
func (b *BrowserSearch) scrapeJS() string {
	sel, _ := json.Marshal(b.Selectors)
	return fmt.Sprintf(`(() => {
  const s = %s;
  return Array.from(document.querySelectorAll(s.Result)).slice(0, %d).map(r => {
    const a = r.querySelector(s.Link);
    const sn = r.querySelector(s.Snippet);
    const title = a ? a.textContent.trim() : "";
    const text = sn ? sn.textContent.trim() : "";
    return {snippet: text ? title + ". " + text : title, source: a ? a.href : ""};
  });
})()`, sel, b.Limit)
}

// WebSearch loads the results page for query and returns the scraped hits.
func (b *BrowserSearch) WebSearch(ctx context.Context, query string) ([]evidence.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	target := b.BaseURL + "?" + url.Values{"q": {query}}.Encode()
	var hits []evidence.SearchResult
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(b.scrapeJS(), &hits),
	)
	if err != nil {
		return nil, fmt.Errorf("browser search: %w", err)
	}

	out := hits[:0]
	for _, h := range hits {
		if strings.TrimSpace(h.Source) == "" || strings.TrimSpace(h.Snippet) == "" {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
