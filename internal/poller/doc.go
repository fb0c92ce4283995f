// Package poller implements the paced stock quote fetcher.
//
// The Poller:
//   - Requests one quote per tracked symbol, sequentially
//   - Paces requests with a token-bucket limiter and pauses between batches
//   - Bounds every request with its own timeout
//   - Replaces a failed quote with an estimate from the last known price
//     so that no tracked symbol is ever dropped
//
// SyntheticClient is a QuoteClient that produces random quotes around a base
// price, for running without an upstream quote provider.
package poller
