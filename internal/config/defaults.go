package config

import (
	"time"

	"github.com/rickgao/marketpulse/internal/model"
)

// Default values for optional configuration fields.
const (
	DefaultRefreshInterval   = 5 * time.Minute
	DefaultRefreshTimeout    = 2 * time.Minute
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCryptoLimit       = 30
	DefaultMarketTimeout     = 30 * time.Second
	DefaultMaxAlerts         = 10
	DefaultMinConfidence     = 0.5
	DefaultNewsTimeout       = 15 * time.Second
	DefaultNewsConcurrency   = 8
	DefaultCoinGeckoURL      = "https://api.coingecko.com/api/v3"
	DefaultCoinGeckoCurrency = "eur"
	DefaultYahooURL          = "https://query1.finance.yahoo.com"
	DefaultAPITimeout        = 10 * time.Second
	DefaultStockProvider     = ProviderSynthetic
	DefaultRequestDelay      = 250 * time.Millisecond
	DefaultStockBatchSize    = 5
	DefaultStockBatchDelay   = 1 * time.Second
	DefaultQuoteTimeout      = 10 * time.Second
	DefaultMaxDriftPct       = 2.0
	DefaultCacheBackend      = BackendMemory
	DefaultRedisKeyPrefix    = "marketpulse"
	DefaultRegistryBackend   = BackendFile
	DefaultRegistryPath      = "tracked_assets.json"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultServerAddr        = ":3000"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = FormatText
)

// DefaultFeeds returns the built-in Italian economy feeds.
func DefaultFeeds() []FeedSource {
	return []FeedSource{
		{Name: "ANSA", URL: "https://www.ansa.it/sito/notizie/economia/economia_rss.xml"},
		{Name: "Il Sole 24 Ore", URL: "https://www.ilsole24ore.com/rss/economia--2.xml"},
		{Name: "Milano Finanza", URL: "https://www.milanofinanza.it/rss"},
		{Name: "Corriere della Sera", URL: "https://www.corriere.it/rss/economia.xml"},
		{Name: "La Repubblica", URL: "https://www.repubblica.it/rss/economia/rss2.0.xml"},
		{Name: "La Stampa", URL: "https://www.lastampa.it/economia/rss"},
		{Name: "Il Giornale", URL: "https://www.ilgiornale.it/rss-economia.xml"},
		{Name: "Wall Street Italia", URL: "https://www.wallstreetitalia.com/feed/"},
	}
}

// DefaultTracked returns the built-in tracked-symbol list.
func DefaultTracked() []model.TrackedAssetRef {
	index := func(sym, name, ccy string) model.TrackedAssetRef {
		return model.TrackedAssetRef{Symbol: sym, Name: name, Type: model.AssetIndex, Currency: ccy}
	}
	etf := func(sym, name string, price float64) model.TrackedAssetRef {
		return model.TrackedAssetRef{Symbol: sym, Name: name, Type: model.AssetETF, Currency: "EUR", Price: model.Float(price)}
	}
	equity := func(sym, name string) model.TrackedAssetRef {
		return model.TrackedAssetRef{Symbol: sym, Name: name, Type: model.AssetEquity}
	}

	return []model.TrackedAssetRef{
		// Indices
		index("^GSPC", "S&P 500", ""),
		index("^DJI", "Dow Jones", ""),
		index("^IXIC", "NASDAQ", ""),
		index("^FTSE", "FTSE 100", ""),
		index("^N225", "Nikkei 225", ""),
		index("^HSI", "Hang Seng", ""),
		index("^GDAXI", "DAX", "EUR"),
		index("^FTSEMIB.MI", "FTSE MIB", "EUR"),

		// ETFs
		etf("GOM.MI", "Gold Bullion Securities", 50.67),
		etf("IB1T.DE", "iShares $ Treasury Bond 1-3yr", 5.733),
		etf("JEDI.DE", "JPMorgan ETFs (Ireland) ICAV", 66.26),
		etf("SCWX.MI", "iShares MSCI World Small Cap", 10.554),
		etf("SILV.MI", "WisdomTree Physical Silver", 39.965),
		etf("WBLK.MI", "WisdomTree Physical Swiss Gold", 42.61),
		etf("HY9H.MU", "High Yield Corp Bond", 524),
		etf("SSU.F", "iShares S&P 500 Info Tech", 2630),
		etf("BNKE.MI", "Lyxor EURO STOXX Banks", 322.6),

		// Stocks
		equity("AAPL", "Apple Inc."),
		equity("MSFT", "Microsoft"),
		equity("GOOGL", "Alphabet Inc."),
		equity("AMZN", "Amazon"),
		equity("NVDA", "NVIDIA"),
		equity("META", "Meta Platforms"),
		equity("TSLA", "Tesla Inc."),
		equity("BRK-B", "Berkshire Hathaway"),
		equity("V", "Visa Inc."),
		equity("JPM", "JPMorgan Chase"),
		equity("WMT", "Walmart"),
		equity("MA", "Mastercard"),
		equity("PG", "Procter & Gamble"),
		equity("UNH", "UnitedHealth"),
		equity("HD", "Home Depot"),
		equity("DIS", "Disney"),
		equity("NFLX", "Netflix"),
		equity("ADBE", "Adobe"),
		equity("CRM", "Salesforce"),
		equity("PYPL", "PayPal"),
		equity("INTC", "Intel"),
		equity("AMD", "AMD"),
		equity("CSCO", "Cisco"),
		equity("PEP", "PepsiCo"),
		equity("KO", "Coca-Cola"),

		// Commodities
		{Symbol: "GC=F", Name: "Gold", Type: model.AssetCommodity},
		{Symbol: "CL=F", Name: "Crude Oil", Type: model.AssetCommodity},
	}
}

func (c *Config) applyDefaults() {
	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}
	if c.Refresh.Timeout == 0 {
		c.Refresh.Timeout = DefaultRefreshTimeout
	}

	// Markets defaults
	if c.Markets.CacheTTL == 0 {
		c.Markets.CacheTTL = DefaultCacheTTL
	}
	if c.Markets.CryptoLimit == 0 {
		c.Markets.CryptoLimit = DefaultCryptoLimit
	}
	if c.Markets.FetchTimeout == 0 {
		c.Markets.FetchTimeout = DefaultMarketTimeout
	}

	// Alerts defaults
	if c.Alerts.MaxAlerts == 0 {
		c.Alerts.MaxAlerts = DefaultMaxAlerts
	}
	if c.Alerts.MinConfidence == 0 {
		c.Alerts.MinConfidence = DefaultMinConfidence
	}

	// News defaults
	if c.News.FetchTimeout == 0 {
		c.News.FetchTimeout = DefaultNewsTimeout
	}
	if c.News.Concurrency == 0 {
		c.News.Concurrency = DefaultNewsConcurrency
	}
	if len(c.News.Sources) == 0 {
		c.News.Sources = DefaultFeeds()
	}

	// Upstream defaults
	applyAPIDefaults(&c.Upstream.CoinGecko, DefaultCoinGeckoURL)
	if c.Upstream.CoinGecko.Currency == "" {
		c.Upstream.CoinGecko.Currency = DefaultCoinGeckoCurrency
	}
	applyAPIDefaults(&c.Upstream.Yahoo, DefaultYahooURL)

	// Stocks defaults
	if c.Stocks.Provider == "" {
		c.Stocks.Provider = DefaultStockProvider
	}
	if c.Stocks.RequestDelay == 0 {
		c.Stocks.RequestDelay = DefaultRequestDelay
	}
	if c.Stocks.BatchSize == 0 {
		c.Stocks.BatchSize = DefaultStockBatchSize
	}
	if c.Stocks.BatchDelay == 0 {
		c.Stocks.BatchDelay = DefaultStockBatchDelay
	}
	if c.Stocks.Timeout == 0 {
		c.Stocks.Timeout = DefaultQuoteTimeout
	}
	if c.Stocks.MaxDriftPct == 0 {
		c.Stocks.MaxDriftPct = DefaultMaxDriftPct
	}

	if len(c.Tracked) == 0 {
		c.Tracked = DefaultTracked()
	}

	// Cache defaults
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Registry defaults
	if c.Registry.Backend == "" {
		c.Registry.Backend = DefaultRegistryBackend
	}
	if c.Registry.Path == "" {
		c.Registry.Path = DefaultRegistryPath
	}
	applyDBDefaults(&c.Registry.Postgres)

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyAPIDefaults(api *APIConfig, baseURL string) {
	if api.BaseURL == "" {
		api.BaseURL = baseURL
	}
	if api.Timeout == 0 {
		api.Timeout = DefaultAPITimeout
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
