package model

import (
	"slices"
	"time"
)

// -----------------------------------------------------------------------------
// Enumerations
// -----------------------------------------------------------------------------

// AssetType classifies a market asset.
type AssetType string

const (
	AssetEquity    AssetType = "equity"
	AssetIndex     AssetType = "index"
	AssetCrypto    AssetType = "crypto"
	AssetCommodity AssetType = "commodity"
	AssetETF       AssetType = "etf"
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetEquity, AssetIndex, AssetCrypto, AssetCommodity, AssetETF:
		return true
	}
	return false
}

// Trackable reports whether t can be held in the tracked-symbol registry.
// Crypto comes from the top-coins listing and is never polled per symbol.
func (t AssetType) Trackable() bool {
	return t.Valid() && t != AssetCrypto
}

// Severity ranks an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: high > medium > low. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Horizon is the time frame an alert thesis applies to.
type Horizon string

const (
	HorizonDays   Horizon = "days"
	HorizonWeeks  Horizon = "weeks"
	HorizonMonths Horizon = "months"
)

// -----------------------------------------------------------------------------
// Canonical Types
// -----------------------------------------------------------------------------

// NewsItem is a normalized, deduplicated news article. Immutable once created.
type NewsItem struct {
	ID          string    `json:"id"`     // Digest of title+source+date (16 alphanumerics)
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"` // e.g. "Il Sole 24 Ore"
	PublishedAt time.Time `json:"publishedAt"`
	Snippet     string    `json:"snippet"` // At most 300 characters
	Tags        []string  `json:"tags"`    // Set semantics, fixed tag-table order
}

// HasTag reports whether the item carries tag.
func (n NewsItem) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// MarketAsset is a normalized quote for one instrument.
type MarketAsset struct {
	ID           string    `json:"id"` // type:symbol
	Type         AssetType `json:"type"`
	Symbol       string    `json:"symbol"` // e.g. "AAPL", "BTC", "^GSPC"
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Change24hPct float64   `json:"change24hPct"`
	High24h      *float64  `json:"high24h"`
	Low24h       *float64  `json:"low24h"`
	Volume       *float64  `json:"volume"`
	MarketCap    *float64  `json:"marketCap"`
	AsOf         time.Time `json:"asOf"`
	Estimated    bool      `json:"estimated,omitempty"` // Synthesized after an upstream failure
}

// AssetID builds the canonical asset identifier.
func AssetID(t AssetType, symbol string) string {
	return string(t) + ":" + symbol
}

// TrackedAssetRef is an entry of the tracked-symbol registry.
type TrackedAssetRef struct {
	Symbol   string    `json:"symbol" yaml:"symbol"`
	Name     string    `json:"name" yaml:"name"`
	Type     AssetType `json:"type" yaml:"type"`
	Currency string    `json:"currency,omitempty" yaml:"currency"` // Optional
	Price    *float64  `json:"price,omitempty" yaml:"price"`       // Optional seed price
}

// AlertItem is an advisory alert produced by one rule in one refresh cycle.
type AlertItem struct {
	ID         string    `json:"id"`
	Severity   Severity  `json:"severity"`
	Title      string    `json:"title"`      // At most 80 characters
	Thesis     string    `json:"thesis"`     // 200-500 characters
	Confidence float64   `json:"confidence"` // 0.0 - 1.0
	Horizon    Horizon   `json:"horizon"`
	AssetRefs  []string  `json:"assetRefs"` // MarketAsset.ID
	NewsRefs   []string  `json:"newsRefs"`  // NewsItem.ID
	CreatedAt  time.Time `json:"createdAt"`
}

// Snapshot is the externally visible picture produced by one refresh cycle.
type Snapshot struct {
	News         []NewsItem    `json:"news"`
	Assets       []MarketAsset `json:"assets"`
	Alerts       []AlertItem   `json:"alerts"`
	LastUpdated  *time.Time    `json:"lastUpdated"`
	IsRefreshing bool          `json:"isRefreshing"`
}

// -----------------------------------------------------------------------------
// Raw Provider Records
// -----------------------------------------------------------------------------

// RawFeedItem is a single entry of a news feed before normalization.
type RawFeedItem struct {
	Title          string
	Link           string
	PubDate        string // As published; parsed during normalization
	ContentSnippet string // Plain text
}

// RawCrypto is a crypto market record as reported by CoinGecko /coins/markets.
type RawCrypto struct {
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             float64  `json:"current_price"`
	Currency                 string   `json:"-"` // Set by the client from vs_currency
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	TotalVolume              *float64 `json:"total_volume"`
	MarketCap                *float64 `json:"market_cap"`
}

// RawQuote is a generic equity/index/commodity/ETF quote.
type RawQuote struct {
	Symbol       string
	Name         string
	Type         AssetType // Empty means equity
	Price        float64
	Currency     string // Empty means USD
	Change24hPct *float64
	High24h      *float64
	Low24h       *float64
	Volume       *float64
	MarketCap    *float64
	Estimated    bool
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
