// Package news fetches, normalizes and deduplicates financial news feed items.
//
// The Ingestor:
//   - Fetches every configured Source concurrently, each under its own timeout
//   - Isolates source failures (a failing source contributes zero items)
//   - Normalizes raw feed items into model.NewsItem and extracts tags
//   - Deduplicates by a fuzzy title+date key or a repeated ID, first occurrence wins
//   - Sorts by publication time, newest first (stable)
package news
