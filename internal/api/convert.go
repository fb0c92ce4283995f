package api

import (
	"strings"

	"github.com/rickgao/marketpulse/internal/model"
)

// ToRawQuote converts chart metadata to a RawQuote. ok is false when the
// payload carries no usable price.
//
// The 24h change is computed against chartPreviousClose, falling back to
// previousClose; without either the change is unknown.
func (m ChartMeta) ToRawQuote() (model.RawQuote, bool) {
	if m.RegularMarketPrice == nil || *m.RegularMarketPrice <= 0 {
		return model.RawQuote{}, false
	}
	price := *m.RegularMarketPrice

	q := model.RawQuote{
		Symbol:   m.Symbol,
		Name:     firstNonEmpty(m.LongName, m.ShortName),
		Type:     instrumentType(m.InstrumentType),
		Price:    price,
		Currency: strings.ToUpper(m.Currency),
		High24h:  m.DayHigh,
		Low24h:   m.DayLow,
		Volume:   m.Volume,
	}

	prev := m.ChartPreviousClose
	if prev == nil || *prev <= 0 {
		prev = m.PreviousClose
	}
	if prev != nil && *prev > 0 {
		q.Change24hPct = model.Float(ChangePct(price, *prev))
	}

	return q, true
}

// ChangePct returns the percent change from prev to price.
func ChangePct(price, prev float64) float64 {
	return (price - prev) / prev * 100
}

// instrumentType maps Yahoo's instrumentType to an asset type. Unknown
// types map to "" so the caller's registry type applies.
func instrumentType(s string) model.AssetType {
	switch strings.ToUpper(s) {
	case "EQUITY":
		return model.AssetEquity
	case "INDEX":
		return model.AssetIndex
	case "ETF":
		return model.AssetETF
	case "FUTURE", "COMMODITY":
		return model.AssetCommodity
	case "CRYPTOCURRENCY":
		return model.AssetCrypto
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
