// Package model defines the canonical types shared across the MarketPulse pipeline.
//
// Canonical types (NewsItem, MarketAsset, AlertItem, Snapshot) are what ingestion
// produces and what the rule engine and HTTP surface consume. Raw* types mirror
// the payload shape of a single upstream source and exist only at the provider
// boundary; each has an explicit normalizer in the ingestion packages.
//
// Conventions:
//   - Percentages: float64 percentage points (-1.5 = down 1.5%)
//   - Timestamps: time.Time, UTC
//   - Optional numerics: *float64, nil when the source did not report them
package model
