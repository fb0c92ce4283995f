// Package api provides REST clients for the upstream market data providers.
//
// Providers:
//   - CoinGecko: GET /coins/markets for the top crypto assets by market cap
//   - Yahoo Finance: GET /v8/finance/chart/{symbol} for equity, index,
//     commodity and ETF quotes
//
// Both share Client, a JSON-over-HTTP client with optional retry on 429/5xx.
// Retries are disabled by default.
package api
