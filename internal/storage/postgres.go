package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/marketpulse/internal/model"
)

// DB is the subset of pgxpool.Pool used by PostgresStore.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS tracked_assets (
	position INTEGER NOT NULL,
	symbol   TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	type     TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	price    DOUBLE PRECISION
)`

	selectAssetsSQL = `SELECT symbol, name, type, currency, price FROM tracked_assets ORDER BY position`
	deleteAssetsSQL = `DELETE FROM tracked_assets`
	insertAssetSQL  = `INSERT INTO tracked_assets (position, symbol, name, type, currency, price) VALUES ($1, $2, $3, $4, $5, $6)`
)

// PostgresStore keeps the registry in the tracked_assets table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore returns a store using db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tracked_assets table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create tracked_assets: %w", err)
	}
	return nil
}

// Load returns the stored list in insertion order.
func (s *PostgresStore) Load(ctx context.Context) ([]model.TrackedAssetRef, error) {
	rows, err := s.db.Query(ctx, selectAssetsSQL)
	if err != nil {
		return nil, fmt.Errorf("query tracked_assets: %w", err)
	}
	defer rows.Close()

	var refs []model.TrackedAssetRef
	for rows.Next() {
		var (
			ref   model.TrackedAssetRef
			typ   string
			price *float64
		)
		if err := rows.Scan(&ref.Symbol, &ref.Name, &typ, &ref.Currency, &price); err != nil {
			return nil, fmt.Errorf("scan tracked_assets: %w", err)
		}
		ref.Type = model.AssetType(typ)
		ref.Price = price
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked_assets: %w", err)
	}
	return refs, nil
}

// Save replaces the stored list in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, refs []model.TrackedAssetRef) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := replaceAll(ctx, tx, refs); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func replaceAll(ctx context.Context, tx pgx.Tx, refs []model.TrackedAssetRef) error {
	if _, err := tx.Exec(ctx, deleteAssetsSQL); err != nil {
		return fmt.Errorf("delete tracked_assets: %w", err)
	}
	for i, r := range refs {
		if _, err := tx.Exec(ctx, insertAssetSQL, i, r.Symbol, r.Name, string(r.Type), r.Currency, r.Price); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}
	return nil
}
