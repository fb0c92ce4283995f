// Package cache holds the single-slot market cache.
//
// The slot stores the most recent successful market fetch together with its
// timestamp. Freshness is decided by the caller; the slot only stores, loads
// and invalidates.
//
// Backends:
//   - Memory: process-local, guarded by a mutex
//   - Redis: JSON value under "<prefix>:markets:all", shared by replicas
package cache
