// Package storage persists the tracked-symbol registry.
//
// Two backends implement market.RegistryStore:
//   - FileStore: a JSON array on local disk, written atomically (tmp file + rename)
//   - PostgresStore: the tracked_assets table, replaced in full inside one transaction
//
// Both return an empty list when nothing has been stored yet.
package storage
