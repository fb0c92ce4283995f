package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
)

// Source is a single news feed.
type Source interface {
	// Name identifies the source and becomes NewsItem.Source.
	Name() string

	// Fetch returns the raw items currently published by the feed.
	Fetch(ctx context.Context) ([]model.RawFeedItem, error)
}

// Config holds ingestor configuration.
type Config struct {
	FetchTimeout time.Duration // Per-source timeout (0 = caller's context only)
	Concurrency  int           // Max concurrent source fetches (0 = unbounded)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FetchTimeout: 15 * time.Second,
		Concurrency:  8,
	}
}

// Result is the outcome of one FetchNews call.
type Result struct {
	Items []model.NewsItem
	AsOf  time.Time
}

// Ingestor fetches, normalizes and deduplicates news from all sources.
type Ingestor struct {
	cfg     Config
	sources []Source
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithClock overrides the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		i.now = now
	}
}

// New creates a new Ingestor.
func New(cfg Config, sources []Source, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Ingestor{
		cfg:     cfg,
		sources: sources,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FetchNews fetches all sources and returns the canonical news set.
// Source failures are logged and skipped; the only error returned is the
// caller's context error.
func (i *Ingestor) FetchNews(ctx context.Context) (Result, error) {
	start := time.Now()

	// One slot per source keeps the input order deterministic.
	batches := make([][]model.NewsItem, len(i.sources))

	var g errgroup.Group
	if i.cfg.Concurrency > 0 {
		g.SetLimit(i.cfg.Concurrency)
	}

	for idx, src := range i.sources {
		g.Go(func() error {
			raw, err := i.fetchSource(ctx, src)
			if err != nil {
				i.logger.Warn("news source failed",
					"source", src.Name(),
					"err", err,
				)
				metrics.NewsSourceErrors.WithLabelValues(src.Name()).Inc()
				return nil
			}

			now := i.now()
			items := make([]model.NewsItem, 0, len(raw))
			for _, r := range raw {
				items = append(items, Normalize(r, src.Name(), now))
			}
			batches[idx] = items
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("fetch news: %w", err)
	}

	var all []model.NewsItem
	for _, b := range batches {
		all = append(all, b...)
	}

	items := Deduplicate(all)
	SortByRecency(items)

	metrics.NewsItems.Set(float64(len(items)))
	i.logger.Info("news fetch complete",
		"sources", len(i.sources),
		"raw_items", len(all),
		"items", len(items),
		"duration", time.Since(start),
	)

	return Result{Items: items, AsOf: i.now().UTC()}, nil
}

// fetchSource calls one source under its timeout, converting a panic into an error.
func (i *Ingestor) fetchSource(ctx context.Context, src Source) (items []model.RawFeedItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	if i.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.FetchTimeout)
		defer cancel()
	}

	return src.Fetch(ctx)
}
