package news

import (
	"slices"
	"strings"
	"time"

	"github.com/rickgao/marketpulse/internal/model"
)

const dedupTitleLen = 20

// DedupKey returns the fuzzy identity of an item: the first 20 [a-z0-9]
// characters of the lower-cased title plus the UTC publication date.
func DedupKey(item model.NewsItem) string {
	var b strings.Builder
	for _, r := range strings.ToLower(item.Title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == dedupTitleLen {
				break
			}
		}
	}
	return b.String() + "-" + item.PublishedAt.UTC().Format(time.DateOnly)
}

// Deduplicate drops items whose DedupKey or ID was already seen. IDs are a
// lossy digest, so a repeated ID counts as the same story. First occurrence
// wins and relative order is preserved.
func Deduplicate(items []model.NewsItem) []model.NewsItem {
	seenKeys := make(map[string]struct{}, len(items))
	seenIDs := make(map[string]struct{}, len(items))
	out := make([]model.NewsItem, 0, len(items))

	for _, item := range items {
		key := DedupKey(item)
		if _, ok := seenKeys[key]; ok {
			continue
		}
		if item.ID != "" {
			if _, ok := seenIDs[item.ID]; ok {
				continue
			}
			seenIDs[item.ID] = struct{}{}
		}
		seenKeys[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SortByRecency sorts items newest first. Ties keep their input order.
func SortByRecency(items []model.NewsItem) {
	slices.SortStableFunc(items, func(a, b model.NewsItem) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}
