package market

import (
	"strings"
	"time"

	"github.com/rickgao/marketpulse/internal/model"
)

// Currency defaults applied when a provider omits the quote currency.
const (
	DefaultCryptoCurrency = "EUR"
	DefaultQuoteCurrency  = "USD"
)

// NormalizeCrypto converts a CoinGecko record. The symbol is upper-cased.
func NormalizeCrypto(raw model.RawCrypto, asOf time.Time) model.MarketAsset {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))

	currency := raw.Currency
	if currency == "" {
		currency = DefaultCryptoCurrency
	}

	return model.MarketAsset{
		ID:           model.AssetID(model.AssetCrypto, symbol),
		Type:         model.AssetCrypto,
		Symbol:       symbol,
		Name:         raw.Name,
		Price:        raw.CurrentPrice,
		Currency:     strings.ToUpper(currency),
		Change24hPct: valueOr(raw.PriceChangePercentage24h, 0),
		High24h:      raw.High24h,
		Low24h:       raw.Low24h,
		Volume:       raw.TotalVolume,
		MarketCap:    raw.MarketCap,
		AsOf:         asOf,
	}
}

// NormalizeQuote converts a generic quote. The symbol is kept verbatim.
func NormalizeQuote(raw model.RawQuote, asOf time.Time) model.MarketAsset {
	typ := raw.Type
	if typ == "" {
		typ = model.AssetEquity
	}

	currency := raw.Currency
	if currency == "" {
		currency = DefaultQuoteCurrency
	}

	return model.MarketAsset{
		ID:           model.AssetID(typ, raw.Symbol),
		Type:         typ,
		Symbol:       raw.Symbol,
		Name:         raw.Name,
		Price:        raw.Price,
		Currency:     currency,
		Change24hPct: valueOr(raw.Change24hPct, 0),
		High24h:      raw.High24h,
		Low24h:       raw.Low24h,
		Volume:       raw.Volume,
		MarketCap:    raw.MarketCap,
		AsOf:         asOf,
		Estimated:    raw.Estimated,
	}
}

// combine concatenates asset groups. On a duplicate ID the later asset
// replaces the earlier one at the earlier position.
func combine(groups ...[]model.MarketAsset) []model.MarketAsset {
	var n int
	for _, g := range groups {
		n += len(g)
	}

	out := make([]model.MarketAsset, 0, n)
	pos := make(map[string]int, n)
	for _, g := range groups {
		for _, a := range g {
			if i, ok := pos[a.ID]; ok {
				out[i] = a
				continue
			}
			pos[a.ID] = len(out)
			out = append(out, a)
		}
	}
	return out
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
