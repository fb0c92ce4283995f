package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rickgao/marketpulse/internal/model"
)

// YahooBaseURL is the Yahoo Finance query host.
const YahooBaseURL = "https://query1.finance.yahoo.com"

// ErrNoQuote is returned when a chart response carries no usable price.
var ErrNoQuote = errors.New("no quote in response")

// Yahoo fetches quotes from the Yahoo Finance chart endpoint.
type Yahoo struct {
	client *Client
}

// NewYahoo creates a Yahoo provider.
func NewYahoo(client *Client) *Yahoo {
	return &Yahoo{client: client}
}

// GetQuote returns the latest daily quote for ref.Symbol.
func (y *Yahoo) GetQuote(ctx context.Context, ref model.TrackedAssetRef) (model.RawQuote, error) {
	query := url.Values{}
	query.Set("range", "1d")
	query.Set("interval", "1d")

	var resp ChartResponse
	path := "/v8/finance/chart/" + url.PathEscape(ref.Symbol)
	if err := y.client.get(ctx, path, query, &resp); err != nil {
		return model.RawQuote{}, fmt.Errorf("yahoo chart %s: %w", ref.Symbol, err)
	}

	if e := resp.Chart.Error; e != nil {
		return model.RawQuote{}, fmt.Errorf("yahoo chart %s: %s: %s", ref.Symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return model.RawQuote{}, fmt.Errorf("yahoo chart %s: %w", ref.Symbol, ErrNoQuote)
	}

	q, ok := resp.Chart.Result[0].Meta.ToRawQuote()
	if !ok {
		return model.RawQuote{}, fmt.Errorf("yahoo chart %s: %w", ref.Symbol, ErrNoQuote)
	}
	if q.Symbol == "" {
		q.Symbol = ref.Symbol
	}
	return q, nil
}
