package config

import (
	"time"

	"github.com/rickgao/marketpulse/internal/model"
)

// Config is the root configuration for a marketpulse instance.
type Config struct {
	Refresh  RefreshConfig           `yaml:"refresh"`
	Markets  MarketsConfig           `yaml:"markets"`
	Alerts   AlertsConfig            `yaml:"alerts"`
	News     NewsConfig              `yaml:"news"`
	Upstream UpstreamConfig          `yaml:"upstream"`
	Stocks   StocksConfig            `yaml:"stocks"`
	Tracked  []model.TrackedAssetRef `yaml:"tracked"`
	Cache    CacheConfig             `yaml:"cache"`
	Registry RegistryConfig          `yaml:"registry"`
	Server   ServerConfig            `yaml:"server"`
	Log      LogConfig               `yaml:"log"`
}

// RefreshConfig holds orchestrator timing.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MarketsConfig holds market fetch and cache settings.
type MarketsConfig struct {
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CryptoLimit  int           `yaml:"crypto_limit"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// AlertsConfig holds alert ranking settings.
type AlertsConfig struct {
	MaxAlerts     int     `yaml:"max_alerts"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// NewsConfig holds feed fetch settings.
type NewsConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Concurrency  int           `yaml:"concurrency"`
	Sources      []FeedSource  `yaml:"sources"`
}

// FeedSource is one RSS feed.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// UpstreamConfig holds the market data API clients.
type UpstreamConfig struct {
	CoinGecko APIConfig `yaml:"coingecko"`
	Yahoo     APIConfig `yaml:"yahoo"`
}

// APIConfig holds a single upstream API client.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Currency   string        `yaml:"currency"` // Quote currency requested (coingecko only)
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StocksConfig holds the stock quote poller settings. The pacing fields
// apply to the yahoo provider only; the synthetic provider is never paced.
// Zero pacing values take the defaults; batch_size must be at least 1.
type StocksConfig struct {
	Provider     string        `yaml:"provider"` // synthetic or yahoo
	RequestDelay time.Duration `yaml:"request_delay"`
	BatchSize    int           `yaml:"batch_size"`
	BatchDelay   time.Duration `yaml:"batch_delay"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxDriftPct  float64       `yaml:"max_drift_pct"`
}

// CacheConfig selects the market cache backend.
type CacheConfig struct {
	Backend string      `yaml:"backend"` // memory or redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds the Redis cache connection.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RegistryConfig selects where the tracked-symbol list is persisted.
type RegistryConfig struct {
	Backend  string   `yaml:"backend"` // file or postgres
	Path     string   `yaml:"path"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Backend and provider names.
const (
	ProviderSynthetic = "synthetic"
	ProviderYahoo     = "yahoo"

	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendPostgres = "postgres"

	FormatText = "text"
	FormatJSON = "json"
)

// StockPollDuration estimates how long one paced poll of the tracked
// refs takes, ignoring upstream latency. Zero for the synthetic provider.
func (c *Config) StockPollDuration() time.Duration {
	if c.Stocks.Provider != ProviderYahoo {
		return 0
	}
	var n int
	for _, ref := range c.Tracked {
		if ref.Type != model.AssetCrypto {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	d := time.Duration(n-1) * c.Stocks.RequestDelay
	if c.Stocks.BatchSize > 0 {
		d += time.Duration((n-1)/c.Stocks.BatchSize) * c.Stocks.BatchDelay
	}
	return d
}
