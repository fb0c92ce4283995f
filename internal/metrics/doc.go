// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Refresh cycle outcomes and latencies
//   - News source failures and deduplicated item counts
//   - Market fetch results (fresh, cache, stale, empty) and branch failures
//   - Quote estimates synthesized after upstream failures
//   - Rule evaluation failures and alert counts
//   - Connected snapshot stream clients
package metrics
