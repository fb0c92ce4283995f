package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := positive("refresh.interval", c.Refresh.Interval); err != nil {
		return err
	}
	if err := positive("refresh.timeout", c.Refresh.Timeout); err != nil {
		return err
	}

	if err := positive("markets.cache_ttl", c.Markets.CacheTTL); err != nil {
		return err
	}
	if c.Markets.CryptoLimit < 1 {
		return errors.New("markets.crypto_limit must be >= 1")
	}
	if err := positive("markets.fetch_timeout", c.Markets.FetchTimeout); err != nil {
		return err
	}

	if c.Alerts.MaxAlerts < 1 {
		return errors.New("alerts.max_alerts must be >= 1")
	}
	if c.Alerts.MinConfidence < 0 || c.Alerts.MinConfidence > 1 {
		return fmt.Errorf("alerts.min_confidence must be between 0 and 1, got %g", c.Alerts.MinConfidence)
	}

	if err := positive("news.fetch_timeout", c.News.FetchTimeout); err != nil {
		return err
	}
	if c.News.Concurrency < 1 {
		return errors.New("news.concurrency must be >= 1")
	}
	for i, src := range c.News.Sources {
		if src.URL == "" {
			return fmt.Errorf("news.sources[%d].url is required", i)
		}
	}

	if err := c.Upstream.CoinGecko.validate("upstream.coingecko"); err != nil {
		return err
	}
	if err := c.Upstream.Yahoo.validate("upstream.yahoo"); err != nil {
		return err
	}

	switch c.Stocks.Provider {
	case ProviderSynthetic, ProviderYahoo:
	default:
		return fmt.Errorf("stocks.provider must be %q or %q, got %q", ProviderSynthetic, ProviderYahoo, c.Stocks.Provider)
	}
	if c.Stocks.RequestDelay < 0 {
		return errors.New("stocks.request_delay must be >= 0")
	}
	if c.Stocks.BatchSize < 1 {
		return errors.New("stocks.batch_size must be >= 1")
	}
	if c.Stocks.BatchDelay < 0 {
		return errors.New("stocks.batch_delay must be >= 0")
	}
	if err := positive("stocks.timeout", c.Stocks.Timeout); err != nil {
		return err
	}
	if c.Stocks.MaxDriftPct < 0 {
		return errors.New("stocks.max_drift_pct must be >= 0")
	}

	if err := c.validateTracked(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.Redis.URL == "" {
			return errors.New("cache.redis.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend)
	}

	switch c.Registry.Backend {
	case BackendFile:
		if c.Registry.Path == "" {
			return errors.New("registry.path is required for the file backend")
		}
	case BackendPostgres:
		if err := c.Registry.Postgres.validate("registry.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("registry.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Registry.Backend)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", FormatText, FormatJSON, c.Log.Format)
	}

	return nil
}

func (c *Config) validateTracked() error {
	seen := make(map[string]bool, len(c.Tracked))
	for i, ref := range c.Tracked {
		if ref.Symbol == "" {
			return fmt.Errorf("tracked[%d].symbol is required", i)
		}
		if ref.Name == "" {
			return fmt.Errorf("tracked[%d].name is required", i)
		}
		if !ref.Type.Valid() {
			return fmt.Errorf("tracked[%d].type %q is not a known asset type", i, ref.Type)
		}
		if !ref.Type.Trackable() {
			return fmt.Errorf("tracked[%d].type %q cannot be tracked, crypto comes from the top-coins listing", i, ref.Type)
		}
		if seen[ref.Symbol] {
			return fmt.Errorf("tracked[%d].symbol %q is duplicated", i, ref.Symbol)
		}
		seen[ref.Symbol] = true
	}
	return nil
}

func (a *APIConfig) validate(prefix string) error {
	if a.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", prefix)
	}
	if err := positive(prefix+".timeout", a.Timeout); err != nil {
		return err
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("%s.max_retries must be >= 0", prefix)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func positive(field string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be > 0, got %v", field, d)
	}
	return nil
}
