// Package market fetches, caches and normalizes crypto and stock quotes.
//
// The Ingestor:
//   - Serves the combined asset list from a single-slot cache while it is fresh
//   - Otherwise fetches crypto and stock quotes concurrently, isolating branch failures
//   - Normalizes provider records into model.MarketAsset
//   - Falls back to the last cached entry (flagged stale) when every branch fails
//   - Owns the tracked-symbol registry and persists it through a RegistryStore
//
// The cache slot and the registry share one mutex. Upstream calls run outside it.
package market
