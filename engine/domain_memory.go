package engine

import (
	"sync"
	"time"
)

// DomainMemory remembers which engine last delivered an accepted page for
// each host, so repeat harvests of the same marketplace skip the race.
// A nil *DomainMemory remembers nothing.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]domainEntry
	ttl     time.Duration
	now     func() time.Time
}

type domainEntry struct {
	engine    string
	expiresAt time.Time
}

// NewDomainMemory creates a DomainMemory whose entries live for ttl.
// Expired entries are dropped lazily on lookup and on Set.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the remembered engine name for a host, or "" if none.
func (dm *DomainMemory) Get(host string) string {
	if dm == nil {
		return ""
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

// Set records the winning engine for a host.
func (dm *DomainMemory) Set(host, engineName string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	now := dm.now()
	for h, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, h)
		}
	}
	dm.entries[host] = domainEntry{engine: engineName, expiresAt: now.Add(dm.ttl)}
}

// Delete forgets a host, e.g. after its remembered engine stops delivering.
func (dm *DomainMemory) Delete(host string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, host)
}

// Len reports how many hosts are currently remembered.
func (dm *DomainMemory) Len() int {
	if dm == nil {
		return 0
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}
