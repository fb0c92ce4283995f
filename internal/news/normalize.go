package news

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rickgao/marketpulse/internal/model"
)

const (
	// DefaultTitle replaces a missing title.
	DefaultTitle = "No Title"

	// MaxSnippetLen is the maximum snippet length in characters.
	MaxSnippetLen = 300

	idLength = 16
)

// pubDateLayouts are tried in order when parsing a feed's publication date.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.DateTime,
	time.DateOnly,
}

// Normalize converts a raw feed item into a NewsItem.
// now is used when the publication date is missing or unparsable.
func Normalize(raw model.RawFeedItem, source string, now time.Time) model.NewsItem {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = DefaultTitle
	}

	snippet := clip(strings.TrimSpace(raw.ContentSnippet), MaxSnippetLen)
	publishedAt := ParsePubDate(raw.PubDate, now)

	return model.NewsItem{
		ID:          ItemID(title, source, publishedAt),
		Title:       title,
		URL:         strings.TrimSpace(raw.Link),
		Source:      source,
		PublishedAt: publishedAt,
		Snippet:     snippet,
		Tags:        ExtractTags(title + " " + snippet),
	}
}

// ParsePubDate parses a feed date, falling back to now. The result is UTC.
func ParsePubDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range pubDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return now.UTC()
}

// ItemID derives the item identifier from title, source and UTC publication date.
// The base64 text is stripped to alphanumerics and truncated, so distinct
// inputs may collide; a collision is treated as the same story.
func ItemID(title, source string, publishedAt time.Time) string {
	key := title + "-" + source + "-" + publishedAt.UTC().Format(time.DateOnly)
	enc := base64.StdEncoding.EncodeToString([]byte(key))

	var b strings.Builder
	b.Grow(idLength)
	for i := 0; i < len(enc) && b.Len() < idLength; i++ {
		if c := enc[i]; isAlnum(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// clip truncates s to at most n characters.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
