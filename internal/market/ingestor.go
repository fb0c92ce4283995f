package market

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketpulse/internal/cache"
	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
)

// CryptoSource returns the top crypto assets by market cap.
type CryptoSource interface {
	FetchTopCrypto(ctx context.Context, limit int) ([]model.RawCrypto, error)
}

// StockSource returns quotes for the tracked non-crypto symbols. A source may
// return quotes together with a context error when it was cut short; those
// quotes are kept unless the caller's own context is done.
type StockSource interface {
	FetchStocks(ctx context.Context, refs []model.TrackedAssetRef) ([]model.RawQuote, error)
}

// Config holds ingestor configuration.
type Config struct {
	CacheTTL     time.Duration // Cache entry freshness window
	CryptoLimit  int           // Number of top crypto assets to request
	FetchTimeout time.Duration // Per-branch timeout (0 = caller's context only)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:     5 * time.Minute,
		CryptoLimit:  30,
		FetchTimeout: 30 * time.Second,
	}
}

// Result is the outcome of one FetchMarkets call.
type Result struct {
	Assets    []model.MarketAsset
	AsOf      time.Time
	FromCache bool // Served from a fresh cache entry
	Stale     bool // Every branch failed; Assets is the last cached entry
}

// Ingestor fetches market data and owns the tracked-symbol registry.
type Ingestor struct {
	cfg    Config
	crypto CryptoSource
	stocks StockSource
	store  RegistryStore
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex // Guards slot and registry
	slot     cache.Slot
	registry *registryState
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithClock overrides the clock used for cache freshness and timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		i.now = now
	}
}

// WithCache sets the cache slot. The default is an in-memory slot.
func WithCache(slot cache.Slot) Option {
	return func(i *Ingestor) {
		i.slot = slot
	}
}

// WithStore sets the registry persistence. Without a store the registry
// lives in memory only.
func WithStore(store RegistryStore) Option {
	return func(i *Ingestor) {
		i.store = store
	}
}

// New creates a new Ingestor. A nil source disables its branch.
// tracked is the initial registry.
func New(cfg Config, crypto CryptoSource, stocks StockSource, tracked []model.TrackedAssetRef, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingestor{
		cfg:      cfg,
		crypto:   crypto,
		stocks:   stocks,
		logger:   logger,
		now:      time.Now,
		slot:     cache.NewMemory(),
		registry: newRegistryState(tracked),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FetchMarkets returns the combined asset list, from cache when fresh.
// Provider failures never surface as errors; the only error returned is the
// caller's context error.
func (i *Ingestor) FetchMarkets(ctx context.Context) (Result, error) {
	i.mu.Lock()
	entry, cached := i.loadEntryLocked(ctx)
	refs := i.registry.list()
	generation := i.registry.generation
	i.mu.Unlock()

	if cached && entry.Fresh(i.now(), i.cfg.CacheTTL) {
		metrics.MarketFetchTotal.WithLabelValues("cache").Inc()
		i.logger.Debug("market cache hit",
			"assets", len(entry.Assets),
			"age", i.now().Sub(entry.Timestamp),
		)
		return Result{Assets: entry.Assets, AsOf: entry.Timestamp, FromCache: true}, nil
	}

	start := time.Now()
	groups, succeeded := i.fetchBranches(ctx, refs)

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("fetch markets: %w", err)
	}

	if succeeded == 0 {
		if cached {
			metrics.MarketFetchTotal.WithLabelValues("stale").Inc()
			i.logger.Warn("all market providers failed, serving stale cache",
				"assets", len(entry.Assets),
				"as_of", entry.Timestamp,
			)
			return Result{Assets: entry.Assets, AsOf: entry.Timestamp, Stale: true}, nil
		}
		metrics.MarketFetchTotal.WithLabelValues("empty").Inc()
		i.logger.Warn("all market providers failed, no cached data")
		return Result{Assets: []model.MarketAsset{}, AsOf: i.now().UTC()}, nil
	}

	asOf := i.now().UTC()
	assets := combine(normalizeGroups(groups, asOf)...)

	i.mu.Lock()
	if i.registry.generation == generation {
		if err := i.slot.Store(ctx, cache.Entry{Assets: assets, Timestamp: asOf}); err != nil {
			i.logger.Warn("market cache store failed", "err", err)
		}
	} else {
		i.logger.Debug("registry changed during fetch, result not cached")
	}
	i.mu.Unlock()

	metrics.MarketFetchTotal.WithLabelValues("fresh").Inc()
	i.logger.Info("market fetch complete",
		"assets", len(assets),
		"branches_ok", succeeded,
		"duration", time.Since(start),
	)

	return Result{Assets: assets, AsOf: asOf}, nil
}

// branchResult holds the raw output of both providers.
type branchResult struct {
	crypto []model.RawCrypto
	quotes []model.RawQuote
}

// fetchBranches runs the configured providers concurrently and reports how
// many of them succeeded.
func (i *Ingestor) fetchBranches(ctx context.Context, refs []model.TrackedAssetRef) (branchResult, int) {
	var (
		res      branchResult
		cryptoOK bool
		stocksOK bool
		g        errgroup.Group
	)

	if i.crypto != nil {
		g.Go(func() error {
			err := i.runBranch(ctx, "crypto", func(ctx context.Context) error {
				raw, err := i.crypto.FetchTopCrypto(ctx, i.cfg.CryptoLimit)
				res.crypto = raw
				return err
			})
			cryptoOK = err == nil
			return nil
		})
	}

	if i.stocks != nil {
		g.Go(func() error {
			err := i.runBranch(ctx, "stocks", func(branchCtx context.Context) error {
				raw, err := i.stocks.FetchStocks(branchCtx, stockRefs(refs))
				res.quotes = raw
				if err != nil && len(raw) > 0 && ctx.Err() == nil {
					// Branch deadline only: keep the partial poll.
					i.logger.Warn("stock branch timed out, keeping partial quotes",
						"quotes", len(raw),
						"err", err,
					)
					metrics.MarketBranchErrors.WithLabelValues("stocks").Inc()
					return nil
				}
				return err
			})
			stocksOK = err == nil
			return nil
		})
	}

	_ = g.Wait()

	var succeeded int
	if cryptoOK {
		succeeded++
	} else {
		res.crypto = nil
	}
	if stocksOK {
		succeeded++
	} else {
		res.quotes = nil
	}
	return res, succeeded
}

// runBranch runs one provider call under the branch timeout. Errors and
// panics are logged and counted.
func (i *Ingestor) runBranch(ctx context.Context, branch string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s provider panicked: %v", branch, r)
		}
		if err != nil {
			i.logger.Warn("market provider failed", "branch", branch, "err", err)
			metrics.MarketBranchErrors.WithLabelValues(branch).Inc()
		}
	}()

	if i.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.FetchTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func normalizeGroups(res branchResult, asOf time.Time) [][]model.MarketAsset {
	crypto := make([]model.MarketAsset, 0, len(res.crypto))
	for _, raw := range res.crypto {
		crypto = append(crypto, NormalizeCrypto(raw, asOf))
	}
	quotes := make([]model.MarketAsset, 0, len(res.quotes))
	for _, raw := range res.quotes {
		quotes = append(quotes, NormalizeQuote(raw, asOf))
	}
	return [][]model.MarketAsset{crypto, quotes}
}

// stockRefs drops crypto entries; crypto comes from the top-N branch.
func stockRefs(refs []model.TrackedAssetRef) []model.TrackedAssetRef {
	out := make([]model.TrackedAssetRef, 0, len(refs))
	for _, r := range refs {
		if r.Type != model.AssetCrypto {
			out = append(out, r)
		}
	}
	return out
}

// loadEntryLocked reads the cache slot. A slot error counts as a miss.
func (i *Ingestor) loadEntryLocked(ctx context.Context) (cache.Entry, bool) {
	entry, ok, err := i.slot.Load(ctx)
	if err != nil {
		i.logger.Warn("market cache load failed", "err", err)
		return cache.Entry{}, false
	}
	return entry, ok
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// AddAsset tracks a new symbol. It returns false when the symbol is already
// tracked or its type cannot be tracked (crypto), in which case nothing changes. On success the cache is invalidated
// and the list is persisted; a persistence failure is logged and the
// in-memory change stands.
func (i *Ingestor) AddAsset(ctx context.Context, ref model.TrackedAssetRef) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.registry.add(ref) {
		return false
	}
	i.afterMutationLocked(ctx)

	i.logger.Info("tracked asset added", "symbol", ref.Symbol, "type", ref.Type)
	return true
}

// RemoveAsset stops tracking symbol (exact match). It returns false when the
// symbol is not tracked.
func (i *Ingestor) RemoveAsset(ctx context.Context, symbol string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.registry.remove(symbol) {
		return false
	}
	i.afterMutationLocked(ctx)

	i.logger.Info("tracked asset removed", "symbol", symbol)
	return true
}

// TrackedAssets returns a copy of the registry.
func (i *Ingestor) TrackedAssets() []model.TrackedAssetRef {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry.list()
}

// LoadRegistry replaces the registry with the stored list when the store
// holds one. An empty store keeps the configured list.
func (i *Ingestor) LoadRegistry(ctx context.Context) error {
	if i.store == nil {
		return nil
	}

	refs, err := i.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tracked assets: %w", err)
	}
	if len(refs) == 0 {
		i.logger.Debug("no stored tracked assets, keeping configured list")
		return nil
	}

	refs = slices.DeleteFunc(slices.Clone(refs), func(r model.TrackedAssetRef) bool {
		if r.Type.Trackable() {
			return false
		}
		i.logger.Warn("dropping stored asset that cannot be tracked", "symbol", r.Symbol, "type", r.Type)
		return true
	})
	if len(refs) == 0 {
		i.logger.Debug("no trackable stored assets, keeping configured list")
		return nil
	}

	i.mu.Lock()
	i.registry.replace(refs)
	i.invalidateLocked(ctx)
	i.mu.Unlock()

	i.logger.Info("tracked assets loaded", "count", len(refs))
	return nil
}

func (i *Ingestor) afterMutationLocked(ctx context.Context) {
	i.invalidateLocked(ctx)

	if i.store == nil {
		return
	}
	if err := i.store.Save(ctx, i.registry.list()); err != nil {
		i.logger.Error("failed to persist tracked assets", "err", err)
	}
}

func (i *Ingestor) invalidateLocked(ctx context.Context) {
	if err := i.slot.Invalidate(ctx); err != nil {
		i.logger.Warn("market cache invalidate failed", "err", err)
	}
}
