// marketpulse runs the signal pipeline: it polls news feeds and market data,
// evaluates the alert rules and serves the resulting snapshot over HTTP.
// Usage: go run ./cmd/marketpulse --config configs/marketpulse.example.yaml
//
// A .env file in the working directory is loaded before the config, so
// ${VAR} references in the YAML can be satisfied from it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/marketpulse/internal/api"
	"github.com/rickgao/marketpulse/internal/cache"
	"github.com/rickgao/marketpulse/internal/config"
	"github.com/rickgao/marketpulse/internal/database"
	"github.com/rickgao/marketpulse/internal/feed"
	"github.com/rickgao/marketpulse/internal/market"
	"github.com/rickgao/marketpulse/internal/news"
	"github.com/rickgao/marketpulse/internal/orchestrator"
	"github.com/rickgao/marketpulse/internal/poller"
	"github.com/rickgao/marketpulse/internal/rules"
	"github.com/rickgao/marketpulse/internal/server"
	"github.com/rickgao/marketpulse/internal/storage"
	"github.com/rickgao/marketpulse/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty = built-in defaults)")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// A missing .env is normal outside development
	envErr := godotenv.Load(*envFile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting marketpulse",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("failed to load env file", "path", *envFile, "err", envErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("marketpulse failed", "err", err)
		cancel()
		os.Exit(1)
	}
}

// run wires the pipeline and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// News
	sources := make([]news.Source, 0, len(cfg.News.Sources))
	for _, fs := range cfg.News.Sources {
		sources = append(sources, feed.NewSource(fs.Name, fs.URL, feed.WithUserAgent(version.UserAgent())))
	}
	newsIngestor := news.New(news.Config{
		FetchTimeout: cfg.News.FetchTimeout,
		Concurrency:  cfg.News.Concurrency,
	}, sources, logger)

	// Market providers
	cg := cfg.Upstream.CoinGecko
	crypto := api.NewCoinGecko(api.NewClient(cg.BaseURL,
		api.WithAPIKey(api.CoinGeckoKeyHeader, cg.APIKey),
		api.WithTimeout(cg.Timeout),
		api.WithRetries(cg.MaxRetries, time.Second),
		api.WithLogger(logger),
	), cg.Currency)

	pollCfg := poller.Config{
		RequestDelay: cfg.Stocks.RequestDelay,
		BatchSize:    cfg.Stocks.BatchSize,
		BatchDelay:   cfg.Stocks.BatchDelay,
		Timeout:      cfg.Stocks.Timeout,
		MaxDriftPct:  cfg.Stocks.MaxDriftPct,
	}
	var quotes poller.QuoteClient
	switch cfg.Stocks.Provider {
	case config.ProviderYahoo:
		y := cfg.Upstream.Yahoo
		quotes = api.NewYahoo(api.NewClient(y.BaseURL,
			api.WithTimeout(y.Timeout),
			api.WithRetries(y.MaxRetries, time.Second),
			api.WithLogger(logger),
		))
		if poll := cfg.StockPollDuration(); poll >= cfg.Markets.FetchTimeout {
			logger.Warn("stock poll pacing exceeds market fetch timeout, late symbols will be estimated",
				"pacing", poll,
				"fetch_timeout", cfg.Markets.FetchTimeout,
			)
		}
	default:
		// Local quotes need no pacing.
		quotes = poller.NewSyntheticClient(rand.Float64)
		pollCfg.RequestDelay = 0
		pollCfg.BatchSize = 0
		pollCfg.BatchDelay = 0
	}
	stocks := poller.New(pollCfg, quotes, logger)

	// Cache slot
	var slot cache.Slot = cache.NewMemory()
	if cfg.Cache.Backend == config.BackendRedis {
		redisSlot, client, err := cache.NewRedisFromURL(cfg.Cache.Redis.URL, cfg.Cache.Redis.KeyPrefix, logger)
		if err != nil {
			return fmt.Errorf("configure redis cache: %w", err)
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable, cache will miss until it is", "err", err)
		}
		slot = redisSlot
		logger.Info("using redis market cache", "key", redisSlot.Key())
	}

	// Registry store
	var store market.RegistryStore
	switch cfg.Registry.Backend {
	case config.BackendPostgres:
		pg := cfg.Registry.Postgres
		logger.Info("connecting to database",
			"host", pg.Host,
			"port", pg.Port,
			"database", pg.Name,
		)
		pool, err := database.Connect(ctx, pg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		pgStore := storage.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare registry table: %w", err)
		}
		store = pgStore
		logger.Info("database connected")
	default:
		store = storage.NewFileStore(cfg.Registry.Path)
		logger.Info("using file registry", "path", cfg.Registry.Path)
	}

	marketIngestor := market.New(market.Config{
		CacheTTL:     cfg.Markets.CacheTTL,
		CryptoLimit:  cfg.Markets.CryptoLimit,
		FetchTimeout: cfg.Markets.FetchTimeout,
	}, crypto, stocks, cfg.Tracked, logger,
		market.WithCache(slot),
		market.WithStore(store),
	)

	engine := rules.New(rules.Config{
		MaxAlerts:     cfg.Alerts.MaxAlerts,
		MinConfidence: cfg.Alerts.MinConfidence,
	}, logger)

	orch := orchestrator.New(orchestrator.Config{
		AutoRefreshInterval: cfg.Refresh.Interval,
		RefreshTimeout:      cfg.Refresh.Timeout,
	}, newsIngestor, marketIngestor, engine, logger)

	// Start the HTTP surface before the first refresh so /health answers during it
	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Server.Addr
	srv := server.New(srvCfg, orch, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	if err := orch.Start(ctx); err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("start orchestrator: %w", err)
	}

	logger.Info("marketpulse running",
		"feeds", len(sources),
		"tracked", len(cfg.Tracked),
		"stock_provider", cfg.Stocks.Provider,
		"cache", cfg.Cache.Backend,
		"registry", cfg.Registry.Backend,
		"url", fmt.Sprintf("http://localhost%s/api/state", cfg.Server.Addr),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "err", err)
	}
	if err := orch.Stop(shutdownCtx); err != nil {
		logger.Warn("orchestrator shutdown", "err", err)
	}

	logger.Info("marketpulse stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
