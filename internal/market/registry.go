package market

import (
	"context"
	"slices"

	"github.com/rickgao/marketpulse/internal/model"
)

// RegistryStore persists the tracked-symbol list.
type RegistryStore interface {
	// Load returns the stored list. An empty list means nothing was stored.
	Load(ctx context.Context) ([]model.TrackedAssetRef, error)

	// Save replaces the stored list.
	Save(ctx context.Context, refs []model.TrackedAssetRef) error
}

// registryState is the in-memory tracked-symbol list.
// Callers hold Ingestor.mu.
type registryState struct {
	refs []model.TrackedAssetRef

	// generation increases on every mutation so an in-flight fetch
	// can tell whether it was started against the current list.
	generation uint64
}

func newRegistryState(seed []model.TrackedAssetRef) *registryState {
	return &registryState{refs: cloneRefs(seed)}
}

func (s *registryState) index(symbol string) int {
	return slices.IndexFunc(s.refs, func(r model.TrackedAssetRef) bool {
		return r.Symbol == symbol
	})
}

func (s *registryState) add(ref model.TrackedAssetRef) bool {
	if !ref.Type.Trackable() || s.index(ref.Symbol) >= 0 {
		return false
	}
	s.refs = append(s.refs, cloneRef(ref))
	s.generation++
	return true
}

func (s *registryState) remove(symbol string) bool {
	i := s.index(symbol)
	if i < 0 {
		return false
	}
	s.refs = slices.Delete(s.refs, i, i+1)
	s.generation++
	return true
}

func (s *registryState) replace(refs []model.TrackedAssetRef) {
	s.refs = cloneRefs(refs)
	s.generation++
}

func (s *registryState) list() []model.TrackedAssetRef {
	return cloneRefs(s.refs)
}

func cloneRefs(refs []model.TrackedAssetRef) []model.TrackedAssetRef {
	out := make([]model.TrackedAssetRef, len(refs))
	for i, r := range refs {
		out[i] = cloneRef(r)
	}
	return out
}

func cloneRef(r model.TrackedAssetRef) model.TrackedAssetRef {
	if r.Price != nil {
		r.Price = model.Float(*r.Price)
	}
	return r
}
