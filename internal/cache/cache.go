package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rickgao/marketpulse/internal/model"
)

// Key is the slot key for the combined market asset list.
const Key = "markets:all"

// Entry is one cached market fetch.
type Entry struct {
	Assets    []model.MarketAsset `json:"assets"`
	Timestamp time.Time           `json:"timestamp"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// Slot stores at most one Entry.
type Slot interface {
	// Load returns the stored entry; ok is false when the slot is empty.
	Load(ctx context.Context) (entry Entry, ok bool, err error)

	// Store replaces the stored entry.
	Store(ctx context.Context, entry Entry) error

	// Invalidate empties the slot.
	Invalidate(ctx context.Context) error
}

// Memory is an in-process Slot.
type Memory struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewMemory returns an empty in-process slot.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Slot.
func (m *Memory) Load(ctx context.Context) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.entry == nil {
		return Entry{}, false, nil
	}
	return cloneEntry(*m.entry), true, nil
}

// Store implements Slot.
func (m *Memory) Store(ctx context.Context, entry Entry) error {
	e := cloneEntry(entry)

	m.mu.Lock()
	m.entry = &e
	m.mu.Unlock()
	return nil
}

// Invalidate implements Slot.
func (m *Memory) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.entry = nil
	m.mu.Unlock()
	return nil
}

func cloneEntry(e Entry) Entry {
	out := Entry{Timestamp: e.Timestamp}
	if e.Assets != nil {
		out.Assets = make([]model.MarketAsset, len(e.Assets))
		copy(out.Assets, e.Assets)
	}
	return out
}
