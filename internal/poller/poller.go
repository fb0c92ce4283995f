package poller

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
)

// QuoteClient fetches a single quote.
type QuoteClient interface {
	GetQuote(ctx context.Context, ref model.TrackedAssetRef) (model.RawQuote, error)
}

// Config holds poller configuration.
type Config struct {
	RequestDelay time.Duration // Minimum spacing between requests (default: 250ms)
	BatchSize    int           // Symbols per batch, 0 disables batching (default: 5)
	BatchDelay   time.Duration // Pause between batches (default: 1s)
	Timeout      time.Duration // Per-request timeout (default: 10s)
	MaxDriftPct  float64       // Estimate drift bound in percent (default: 2)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestDelay: 250 * time.Millisecond,
		BatchSize:    5,
		BatchDelay:   time.Second,
		Timeout:      10 * time.Second,
		MaxDriftPct:  2,
	}
}

// Poller fetches quotes for a list of tracked symbols.
type Poller struct {
	cfg     Config
	client  QuoteClient
	logger  *slog.Logger
	limiter *rate.Limiter
	rand    func() float64

	mu        sync.Mutex
	lastKnown map[string]float64
}

// Option configures a Poller.
type Option func(*Poller)

// WithRand sets the source of uniform [0, 1) values used for estimates.
func WithRand(f func() float64) Option {
	return func(p *Poller) {
		p.rand = f
	}
}

// New creates a new Poller.
func New(cfg Config, client QuoteClient, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	p := &Poller{
		cfg:       cfg,
		client:    client,
		logger:    logger,
		limiter:   rate.NewLimiter(limit, 1),
		rand:      rand.Float64,
		lastKnown: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchStocks returns one quote per ref, in ref order. A failed request is
// replaced by an estimate. When ctx ends mid-poll the refs not yet fetched
// are estimated too, and the full list is returned with the context error.
func (p *Poller) FetchStocks(ctx context.Context, refs []model.TrackedAssetRef) ([]model.RawQuote, error) {
	start := time.Now()
	quotes := make([]model.RawQuote, 0, len(refs))
	var estimated int

	for idx, ref := range refs {
		if err := p.pace(ctx, idx); err != nil {
			estimated += p.estimateRest(&quotes, refs[idx:])
			p.logPoll(len(refs), estimated, start, err)
			return quotes, fmt.Errorf("fetch stocks: %w", err)
		}

		q, err := p.fetchOne(ctx, ref)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				estimated += p.estimateRest(&quotes, refs[idx:])
				p.logPoll(len(refs), estimated, start, ctxErr)
				return quotes, fmt.Errorf("fetch stocks: %w", ctxErr)
			}
			p.logger.Warn("quote failed, using estimate",
				"symbol", ref.Symbol,
				"err", err,
			)
			q = p.estimate(ref)
			metrics.QuoteEstimates.Inc()
			estimated++
		} else {
			p.remember(q)
		}

		quotes = append(quotes, q)
	}

	p.logPoll(len(refs), estimated, start, nil)
	return quotes, nil
}

// pace waits out the batch pause and the request spacing before request idx.
func (p *Poller) pace(ctx context.Context, idx int) error {
	if idx > 0 && p.cfg.BatchSize > 0 && idx%p.cfg.BatchSize == 0 {
		if err := sleep(ctx, p.cfg.BatchDelay); err != nil {
			return err
		}
	}
	if err := p.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline cannot be met.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return context.DeadlineExceeded
	}
	return nil
}

// estimateRest appends an estimate for every ref in rest.
func (p *Poller) estimateRest(quotes *[]model.RawQuote, rest []model.TrackedAssetRef) int {
	for _, ref := range rest {
		*quotes = append(*quotes, p.estimate(ref))
	}
	metrics.QuoteEstimates.Add(float64(len(rest)))
	return len(rest)
}

func (p *Poller) logPoll(symbols, estimated int, start time.Time, err error) {
	if err != nil {
		p.logger.Warn("stock poll cut short, remaining symbols estimated",
			"symbols", symbols,
			"estimated", estimated,
			"duration", time.Since(start),
			"err", err,
		)
		return
	}
	p.logger.Info("stock poll complete",
		"symbols", symbols,
		"estimated", estimated,
		"duration", time.Since(start),
	)
}

// fetchOne requests a quote under the per-request timeout. Registry metadata
// fills what the provider leaves out; the registry type always wins.
func (p *Poller) fetchOne(ctx context.Context, ref model.TrackedAssetRef) (model.RawQuote, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	q, err := p.client.GetQuote(ctx, ref)
	if err != nil {
		return model.RawQuote{}, err
	}

	q.Symbol = ref.Symbol
	q.Type = ref.Type
	if ref.Name != "" {
		q.Name = ref.Name
	}
	if q.Currency == "" {
		q.Currency = ref.Currency
	}
	return q, nil
}

func (p *Poller) remember(q model.RawQuote) {
	if q.Price <= 0 {
		return
	}
	p.mu.Lock()
	p.lastKnown[q.Symbol] = q.Price
	p.mu.Unlock()
}

// LastKnown returns the last successfully fetched price of symbol.
func (p *Poller) LastKnown(symbol string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.lastKnown[symbol]
	return price, ok
}

// estimate synthesizes a quote from the best known price with a uniform
// drift in [-MaxDriftPct, +MaxDriftPct].
func (p *Poller) estimate(ref model.TrackedAssetRef) model.RawQuote {
	base, ok := p.LastKnown(ref.Symbol)
	if !ok {
		base = SeedPrice(ref)
	}

	drift := (p.rand()*2 - 1) * p.cfg.MaxDriftPct

	return model.RawQuote{
		Symbol:       ref.Symbol,
		Name:         ref.Name,
		Type:         ref.Type,
		Price:        base * (1 + drift/100),
		Currency:     ref.Currency,
		Change24hPct: model.Float(drift),
		Estimated:    true,
	}
}

// SeedPrice returns the ref's configured price, or a default by type:
// index 4000, gold 2000, AAPL 180, otherwise 100.
func SeedPrice(ref model.TrackedAssetRef) float64 {
	if ref.Price != nil && *ref.Price > 0 {
		return *ref.Price
	}
	switch {
	case ref.Type == model.AssetIndex:
		return 4000
	case ref.Type == model.AssetCommodity && isGold(ref):
		return 2000
	case ref.Symbol == "AAPL":
		return 180
	default:
		return 100
	}
}

func isGold(ref model.TrackedAssetRef) bool {
	if ref.Symbol == "GC=F" {
		return true
	}
	return strings.Contains(strings.ToLower(ref.Symbol+" "+ref.Name), "gold")
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
