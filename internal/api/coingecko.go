package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rickgao/marketpulse/internal/model"
)

// CoinGecko endpoints and headers.
const (
	CoinGeckoBaseURL   = "https://api.coingecko.com/api/v3"
	CoinGeckoKeyHeader = "x-cg-demo-api-key"
)

// CoinGecko fetches crypto market data.
type CoinGecko struct {
	client   *Client
	currency string
}

// NewCoinGecko creates a CoinGecko provider quoting in currency (e.g. "eur").
func NewCoinGecko(client *Client, currency string) *CoinGecko {
	if currency == "" {
		currency = "eur"
	}
	return &CoinGecko{client: client, currency: strings.ToLower(currency)}
}

// FetchTopCrypto returns the top limit assets by market cap.
func (g *CoinGecko) FetchTopCrypto(ctx context.Context, limit int) ([]model.RawCrypto, error) {
	query := url.Values{}
	query.Set("vs_currency", g.currency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	var coins []model.RawCrypto
	if err := g.client.get(ctx, "/coins/markets", query, &coins); err != nil {
		if IsRateLimited(err) {
			g.client.logger.Warn("coingecko rate limit reached")
		}
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}

	for i := range coins {
		coins[i].Currency = strings.ToUpper(g.currency)
	}
	return coins, nil
}
