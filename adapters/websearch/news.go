// Package websearch implements the web-search fallback capability against
// news RSS search and, for pages without feeds, a headless browser.
package websearch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"dealscout/internal/evidence"
	"dealscout/internal/logging"
)

// DefaultFeedURL is the Google News RSS search endpoint.
const DefaultFeedURL = "https://news.google.com/rss/search"

const (
	defaultLimit   = 5
	defaultTimeout = 15 * time.Second
	maxSnippet     = 600
)

// Options configure a searcher. Zero values take defaults.
type Options struct {
	FeedURL  string
	Language string // e.g. "en-US"
	Region   string // e.g. "US"
	Limit    int
	Timeout  time.Duration
}

// NewsSearch queries an RSS search endpoint and turns items into search
// results. It implements evidence.WebSearcher.
type NewsSearch struct {
	Client  *http.Client
	FeedURL string
	HL      string
	GL      string
	Limit   int
}

// NewNewsSearch returns a NewsSearch for opts.
func NewNewsSearch(opts Options) *NewsSearch {
	n := &NewsSearch{
		Client:  &http.Client{Timeout: opts.Timeout},
		FeedURL: opts.FeedURL,
		HL:      opts.Language,
		GL:      opts.Region,
		Limit:   opts.Limit,
	}
	if n.Client.Timeout <= 0 {
		n.Client.Timeout = defaultTimeout
	}
	if n.FeedURL == "" {
		n.FeedURL = DefaultFeedURL
	}
	if n.HL == "" {
		n.HL = "en-US"
	}
	if n.GL == "" {
		n.GL = "US"
	}
	if n.Limit <= 0 {
		n.Limit = defaultLimit
	}
	return n
}

// SearchURL builds the feed request URL for query.
func (n *NewsSearch) SearchURL(query string) string {
	lang, _, _ := strings.Cut(n.HL, "-")
	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", n.HL)
	v.Set("gl", n.GL)
	v.Set("ceid", n.GL+":"+lang)
	sep := "?"
	if strings.Contains(n.FeedURL, "?") {
		sep = "&"
	}
	return n.FeedURL + sep + v.Encode()
}

// WebSearch fetches the feed for query and returns up to Limit results.
func (n *NewsSearch) WebSearch(ctx context.Context, query string) ([]evidence.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.SearchURL(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "dealscout/0.1 (+research)")
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("news search http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	out := make([]evidence.SearchResult, 0, n.Limit)
	for _, it := range feed.Items {
		if len(out) >= n.Limit {
			break
		}
		link := strings.TrimSpace(it.Link)
		title := strings.TrimSpace(it.Title)
		if link == "" || title == "" {
			continue
		}
		out = append(out, evidence.SearchResult{Snippet: snippet(title, it.Description), Source: link})
	}
	logging.New("websearch").Debug("news search", "query", query, "items", len(feed.Items), "results", len(out))
	return out, nil
}

var reTag = regexp.MustCompile(`<[^>]*>`)

// snippet joins the title and the description stripped of markup.
func snippet(title, description string) string {
	desc := html.UnescapeString(reTag.ReplaceAllString(description, " "))
	desc = strings.Join(strings.Fields(desc), " ")
	s := title
	if desc != "" && !strings.HasPrefix(desc, title) {
		s = title + ". " + desc
	} else if desc != "" {
		s = desc
	}
	if r := []rune(s); len(r) > maxSnippet {
		s = string(r[:maxSnippet])
	}
	return s
}

// Disabled is a searcher that never finds anything. Questions reaching the
// fallback then resolve as insufficient data.
type Disabled struct{}

func (Disabled) WebSearch(context.Context, string) ([]evidence.SearchResult, error) {
	return nil, nil
}
