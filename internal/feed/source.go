package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/rickgao/marketpulse/internal/model"
	"github.com/rickgao/marketpulse/internal/version"
)

// Source is a single RSS or Atom feed.
type Source struct {
	name       string
	url        string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient sets the HTTP client used to fetch the feed.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		s.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		s.userAgent = ua
	}
}

// NewSource creates a feed source. name becomes NewsItem.Source.
func NewSource(name, url string, opts ...Option) *Source {
	s := &Source{
		name:       name,
		url:        url,
		httpClient: http.DefaultClient,
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements news.Source.
func (s *Source) Name() string {
	return s.name
}

// URL returns the feed URL.
func (s *Source) URL() string {
	return s.url
}

// Fetch implements news.Source.
func (s *Source) Fetch(ctx context.Context) ([]model.RawFeedItem, error) {
	fp := gofeed.NewParser()
	fp.Client = s.httpClient
	fp.UserAgent = s.userAgent

	f, err := fp.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.name, err)
	}

	items := make([]model.RawFeedItem, 0, len(f.Items))
	for _, it := range f.Items {
		if it == nil {
			continue
		}
		items = append(items, toRaw(it))
	}
	return items, nil
}

func toRaw(it *gofeed.Item) model.RawFeedItem {
	snippet := it.Description
	if strings.TrimSpace(snippet) == "" {
		snippet = it.Content
	}

	return model.RawFeedItem{
		Title:          PlainText(it.Title),
		Link:           strings.TrimSpace(it.Link),
		PubDate:        pubDate(it),
		ContentSnippet: PlainText(snippet),
	}
}

// pubDate prefers gofeed's parsed time, then the raw strings.
func pubDate(it *gofeed.Item) string {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC().Format(time.RFC3339)
	case it.Published != "":
		return it.Published
	default:
		return it.Updated
	}
}

var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from s, decodes entities and collapses
// whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}
