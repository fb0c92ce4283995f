package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketpulse/internal/market"
	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
	"github.com/rickgao/marketpulse/internal/news"
)

// NewsFetcher returns the current deduplicated news.
type NewsFetcher interface {
	FetchNews(ctx context.Context) (news.Result, error)
}

// Markets returns market data and owns the tracked-symbol registry.
type Markets interface {
	FetchMarkets(ctx context.Context) (market.Result, error)
	AddAsset(ctx context.Context, ref model.TrackedAssetRef) bool
	RemoveAsset(ctx context.Context, symbol string) bool
	TrackedAssets() []model.TrackedAssetRef
	LoadRegistry(ctx context.Context) error
}

// AlertGenerator evaluates the rules over one cycle's data.
type AlertGenerator interface {
	GenerateAlerts(news []model.NewsItem, assets []model.MarketAsset) []model.AlertItem
}

// Listener receives every newly published snapshot.
type Listener func(model.Snapshot)

// Config holds orchestrator configuration.
type Config struct {
	AutoRefreshInterval time.Duration // Time between loop refreshes
	RefreshTimeout      time.Duration // Bound on one refresh (0 = caller's context only)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AutoRefreshInterval: 5 * time.Minute,
		RefreshTimeout:      2 * time.Minute,
	}
}

// Orchestrator coordinates the refresh cycle.
type Orchestrator struct {
	cfg     Config
	news    NewsFetcher
	markets Markets
	rules   AlertGenerator
	logger  *slog.Logger
	now     func() time.Time

	snapshot   atomic.Pointer[model.Snapshot]
	refreshing atomic.Bool

	listenersMu sync.RWMutex
	listeners   []Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the clock used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator with an empty snapshot.
func New(cfg Config, newsFetcher NewsFetcher, markets Markets, rules AlertGenerator, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AutoRefreshInterval <= 0 {
		cfg.AutoRefreshInterval = DefaultConfig().AutoRefreshInterval
	}
	o := &Orchestrator{
		cfg:     cfg,
		news:    newsFetcher,
		markets: markets,
		rules:   rules,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.snapshot.Store(&model.Snapshot{
		News:   []model.NewsItem{},
		Assets: []model.MarketAsset{},
		Alerts: []model.AlertItem{},
	})
	return o
}

// ---- Snapshot ----

// State returns the current snapshot with the live refreshing flag.
// The slices are shared with the published snapshot and must not be modified.
func (o *Orchestrator) State() model.Snapshot {
	s := *o.snapshot.Load()
	s.IsRefreshing = o.refreshing.Load()
	return s
}

// OnUpdate registers fn to be called after each successful refresh.
func (o *Orchestrator) OnUpdate(fn Listener) {
	o.listenersMu.Lock()
	o.listeners = append(o.listeners, fn)
	o.listenersMu.Unlock()
}

// Refresh runs one cycle and publishes its snapshot. If a cycle is already
// running it returns the current snapshot immediately. On failure the
// previous snapshot stays published and the error is returned.
func (o *Orchestrator) Refresh(ctx context.Context) (model.Snapshot, error) {
	if !o.refreshing.CompareAndSwap(false, true) {
		metrics.RefreshTotal.WithLabelValues("skipped").Inc()
		o.logger.Debug("refresh already in progress")
		return o.State(), nil
	}
	defer o.refreshing.Store(false)

	if o.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RefreshTimeout)
		defer cancel()
	}

	start := time.Now()
	o.logger.Info("refresh started")

	var (
		newsResult   news.Result
		marketResult market.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		newsResult, err = o.news.FetchNews(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		marketResult, err = o.markets.FetchMarkets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordRefresh("error", time.Since(start).Seconds())
		o.logger.Warn("refresh failed, keeping previous snapshot", "err", err)
		return o.State(), fmt.Errorf("refresh: %w", err)
	}

	alerts := o.rules.GenerateAlerts(newsResult.Items, marketResult.Assets)

	updated := o.now().UTC()
	next := &model.Snapshot{
		News:        nonNil(newsResult.Items),
		Assets:      nonNil(marketResult.Assets),
		Alerts:      nonNil(alerts),
		LastUpdated: &updated,
	}
	o.snapshot.Store(next)

	metrics.RecordRefresh("ok", time.Since(start).Seconds())
	o.logger.Info("refresh complete",
		"news", len(next.News),
		"assets", len(next.Assets),
		"alerts", len(next.Alerts),
		"market_cache", marketResult.FromCache,
		"market_stale", marketResult.Stale,
		"duration", time.Since(start),
	)

	o.notify(*next)
	return *next, nil
}

func (o *Orchestrator) notify(s model.Snapshot) {
	o.listenersMu.RLock()
	listeners := o.listeners
	o.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// ---- Registry ----

// AddAsset starts tracking ref. It returns false if the symbol is already tracked.
func (o *Orchestrator) AddAsset(ctx context.Context, ref model.TrackedAssetRef) bool {
	return o.markets.AddAsset(ctx, ref)
}

// RemoveAsset stops tracking symbol. It returns false if it was not tracked.
func (o *Orchestrator) RemoveAsset(ctx context.Context, symbol string) bool {
	return o.markets.RemoveAsset(ctx, symbol)
}

// TrackedAssets returns a copy of the tracked-symbol list.
func (o *Orchestrator) TrackedAssets() []model.TrackedAssetRef {
	return o.markets.TrackedAssets()
}

// ---- Loop ----

// Start loads the persisted registry, runs an initial refresh and begins
// the auto-refresh loop. Failures in any of these are logged, not returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.ctx, o.cancel = context.WithCancel(ctx)

	if err := o.markets.LoadRegistry(o.ctx); err != nil {
		o.logger.Warn("load registry failed, using configured list", "err", err)
	}

	o.wg.Add(1)
	go o.run()

	o.logger.Info("orchestrator started",
		"interval", o.cfg.AutoRefreshInterval,
		"timeout", o.cfg.RefreshTimeout,
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to finish.
func (o *Orchestrator) Stop(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the auto-refresh loop.
func (o *Orchestrator) run() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.AutoRefreshInterval)
	defer ticker.Stop()

	// Refresh immediately on start.
	o.tick()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.tick()
		}
	}
}

// tick runs one loop refresh. Refresh has already logged any failure.
func (o *Orchestrator) tick() {
	_, _ = o.Refresh(o.ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
