package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/rickgao/marketpulse/internal/model"
)

func sampleRefs() []model.TrackedAssetRef {
	return []model.TrackedAssetRef{
		{Symbol: "^GSPC", Name: "S&P 500", Type: model.AssetIndex},
		{Symbol: "GOM.MI", Name: "Gold Bullion Securities", Type: model.AssetETF, Currency: "EUR", Price: model.Float(50.67)},
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file is empty", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "tracked.json"))
		refs, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("len(refs) = %d, want 0", len(refs))
		}
	})

	t.Run("round trip", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "nested", "tracked.json"))
		if err := s.Save(ctx, sampleRefs()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		refs, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("len(refs) = %d, want 2", len(refs))
		}
		if refs[0].Symbol != "^GSPC" || refs[0].Price != nil {
			t.Errorf("refs[0] = %+v, want ^GSPC without price", refs[0])
		}
		if refs[1].Price == nil || *refs[1].Price != 50.67 {
			t.Errorf("refs[1].Price = %v, want 50.67", refs[1].Price)
		}

		if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
			t.Errorf("temp file left behind: %v", err)
		}
	})

	t.Run("save replaces previous list", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "tracked.json"))
		if err := s.Save(ctx, sampleRefs()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.Save(ctx, sampleRefs()[:1]); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		refs, _ := s.Load(ctx)
		if len(refs) != 1 {
			t.Errorf("len(refs) = %d, want 1", len(refs))
		}
	})

	t.Run("nil list saved as empty array", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "tracked.json"))
		if err := s.Save(ctx, nil); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		data, err := os.ReadFile(s.Path())
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("file = %q, want %q", data, "[]")
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracked.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileStore(path).Load(ctx); err == nil {
			t.Error("Load() error = nil, want decode error")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "tracked.json"))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Save(cctx, sampleRefs()); !errors.Is(err, context.Canceled) {
			t.Errorf("Save() error = %v, want context.Canceled", err)
		}
		if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
			t.Error("file written despite canceled context")
		}
	})
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tracked_assets").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	if err := NewPostgresStore(mock).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_Load(t *testing.T) {
	t.Run("rows in position order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer mock.Close()

		price := 50.67
		rows := pgxmock.NewRows([]string{"symbol", "name", "type", "currency", "price"}).
			AddRow("^GSPC", "S&P 500", "index", "", nil).
			AddRow("GOM.MI", "Gold Bullion Securities", "etf", "EUR", &price)
		mock.ExpectQuery("SELECT symbol, name, type, currency, price FROM tracked_assets").
			WillReturnRows(rows)

		refs, err := NewPostgresStore(mock).Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("len(refs) = %d, want 2", len(refs))
		}
		if refs[0].Type != model.AssetIndex || refs[0].Price != nil {
			t.Errorf("refs[0] = %+v, want index without price", refs[0])
		}
		if refs[1].Type != model.AssetETF || refs[1].Price == nil || *refs[1].Price != 50.67 {
			t.Errorf("refs[1] = %+v, want etf priced 50.67", refs[1])
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT symbol").WillReturnError(errors.New("relation does not exist"))

		if _, err := NewPostgresStore(mock).Load(context.Background()); err == nil {
			t.Error("Load() error = nil, want error")
		}
	})
}

func TestPostgresStore_Save(t *testing.T) {
	t.Run("replaces in one transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer mock.Close()

		refs := sampleRefs()
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM tracked_assets").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mock.ExpectExec("INSERT INTO tracked_assets").
			WithArgs(0, "^GSPC", "S&P 500", "index", "", refs[0].Price).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO tracked_assets").
			WithArgs(1, "GOM.MI", "Gold Bullion Securities", "etf", "EUR", refs[1].Price).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		if err := NewPostgresStore(mock).Save(context.Background(), refs); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM tracked_assets").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec("INSERT INTO tracked_assets").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		if err := NewPostgresStore(mock).Save(context.Background(), sampleRefs()); err == nil {
			t.Fatal("Save() error = nil, want error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("begin failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		if err := NewPostgresStore(mock).Save(context.Background(), sampleRefs()); err == nil {
			t.Fatal("Save() error = nil, want error")
		}
	})
}
