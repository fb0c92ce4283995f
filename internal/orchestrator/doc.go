// Package orchestrator runs the refresh cycle and owns the published snapshot.
//
// A refresh fetches news and markets concurrently, evaluates the rules over
// the combined result and swaps the snapshot in one step. At most one refresh
// is in flight; a concurrent caller gets the current snapshot back without
// triggering any fetch.
//
// Start runs one refresh immediately and then one per AutoRefreshInterval.
// Loop failures are logged and the previous snapshot stays published.
package orchestrator
