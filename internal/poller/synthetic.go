package poller

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rickgao/marketpulse/internal/model"
)

// SyntheticClient generates quotes around SeedPrice with a change in ±2%.
type SyntheticClient struct {
	rand func() float64
}

// NewSyntheticClient returns a SyntheticClient. A nil rand uses the global
// math/rand/v2 source.
func NewSyntheticClient(rnd func() float64) *SyntheticClient {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &SyntheticClient{rand: rnd}
}

// GetQuote implements QuoteClient.
func (c *SyntheticClient) GetQuote(ctx context.Context, ref model.TrackedAssetRef) (model.RawQuote, error) {
	if err := ctx.Err(); err != nil {
		return model.RawQuote{}, err
	}

	change := (c.rand() - 0.5) * 4
	price := SeedPrice(ref) * (1 + change/100)

	return model.RawQuote{
		Symbol:       ref.Symbol,
		Name:         ref.Name,
		Type:         ref.Type,
		Price:        price,
		Currency:     ref.Currency,
		Change24hPct: model.Float(change),
		High24h:      model.Float(price * (1 + c.rand()*0.02)),
		Low24h:       model.Float(price * (1 - c.rand()*0.02)),
		Volume:       model.Float(math.Floor(c.rand() * 1e8)),
		MarketCap:    model.Float(math.Floor(c.rand() * 1e12)),
	}, nil
}
