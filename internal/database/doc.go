// Package database provides PostgreSQL connection pool management.
//
// The pool backs the tracked-symbol registry when registry.backend is
// "postgres" (see storage.PostgresStore).
package database
