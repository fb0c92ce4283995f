package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rickgao/marketpulse/internal/model"
)

// FileStore keeps the registry in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex // Serializes writers sharing the tmp file
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored list. A missing file is an empty list.
func (s *FileStore) Load(_ context.Context) ([]model.TrackedAssetRef, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var refs []model.TrackedAssetRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("decode registry file: %w", err)
	}
	return refs, nil
}

// Save replaces the stored list. The previous file stays intact if any step fails.
func (s *FileStore) Save(ctx context.Context, refs []model.TrackedAssetRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if refs == nil {
		refs = []model.TrackedAssetRef{}
	}

	data, err := json.MarshalIndent(refs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp registry file: %w", err)
	}
	// Sync before rename so a crash never leaves an empty file in place
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp registry file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp registry file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace registry file: %w", err)
	}
	return nil
}
