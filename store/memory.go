package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/use-agent/carscout/models"
)

// Memory is an in-process Store. Contents are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	seq     uint64
	now     func() time.Time
}

type memoryEntry struct {
	listing StoredListing
	seq     uint64
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Upsert(_ context.Context, records []models.ListingRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored := 0
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		m.seq++
		m.entries[r.ExternalID] = memoryEntry{listing: newStored(r, now), seq: m.seq}
		stored++
	}
	return stored, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]StoredListing, error) {
	m.mu.RLock()
	entries := make([]memoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	// Later writes carry a higher seq, so seq alone gives newest first.
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	limit = clampLimit(limit)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]StoredListing, len(entries))
	for i, e := range entries {
		out[i] = e.listing
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

// Len reports how many distinct listings are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
