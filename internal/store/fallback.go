package store

import (
	"sort"
	"sync"
	"time"

	"chatbot-retrieval-core/internal/clock"
)

// Logical domains partitioning the fallback registry.
const (
	DomainDocuments   = "documents"
	DomainPreferences = "preferences"
	DomainTenants     = "provisioned-tenants"
	DomainSessions    = "sessions"
)

// Entry is one fallback record: an opaque payload plus its write time.
type Entry struct {
	Key       string
	Value     any
	WrittenAt time.Time
}

// FallbackRegistry is a process-wide ephemeral store used only while the
// primary store is failing or not yet provisioned. It is never durable and
// never replicated; it exists to keep the process answering with
// read-your-writes semantics during an outage.
//
// Writes are last-write-wins per (domain, key). Each domain is bounded by
// capacity (oldest write evicted first); a capacity of zero disables the
// bound. Expired entries are removed by Sweep, driven by the scheduler.
type FallbackRegistry struct {
	mu       sync.RWMutex
	domains  map[string]map[string]Entry
	capacity int
	clk      clock.Clock
}

func NewFallbackRegistry(capacity int, clk clock.Clock) *FallbackRegistry {
	if clk == nil {
		clk = clock.System{}
	}
	return &FallbackRegistry{
		domains:  make(map[string]map[string]Entry),
		capacity: capacity,
		clk:      clk,
	}
}

// Get returns the payload for (domain, key), or false when absent.
func (r *FallbackRegistry) Get(domain, key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries, ok := r.domains[domain]
	if !ok {
		return nil, false
	}
	e, ok := entries[key]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Put stores the payload under (domain, key), overwriting any previous
// value. Concurrent writers to the same key race last-write-wins.
func (r *FallbackRegistry) Put(domain, key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.domains[domain]
	if !ok {
		entries = make(map[string]Entry)
		r.domains[domain] = entries
	}

	entries[key] = Entry{Key: key, Value: value, WrittenAt: r.clk.Now()}

	if r.capacity > 0 && len(entries) > r.capacity {
		r.evictOldestLocked(entries)
	}
}

// Remove deletes (domain, key); removing an absent key is a no-op.
func (r *FallbackRegistry) Remove(domain, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entries, ok := r.domains[domain]; ok {
		delete(entries, key)
	}
}

// List returns every entry in a domain, newest write first.
func (r *FallbackRegistry) List(domain string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, ok := r.domains[domain]
	if !ok {
		return nil
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WrittenAt.Equal(out[j].WrittenAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].WrittenAt.After(out[j].WrittenAt)
	})
	return out
}

// Len reports the number of entries held for a domain.
func (r *FallbackRegistry) Len(domain string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.domains[domain])
}

// Sweep drops every entry written longer than ttl ago, across all domains,
// and returns the number removed. A zero ttl disables sweeping.
func (r *FallbackRegistry) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	cutoff := r.clk.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, entries := range r.domains {
		for key, e := range entries {
			if e.WrittenAt.Before(cutoff) {
				delete(entries, key)
				removed++
			}
		}
	}
	return removed
}

// caller holds the write lock
func (r *FallbackRegistry) evictOldestLocked(entries map[string]Entry) {
	for len(entries) > r.capacity {
		oldestKey := ""
		var oldest time.Time
		for key, e := range entries {
			if oldestKey == "" || e.WrittenAt.Before(oldest) {
				oldestKey = key
				oldest = e.WrittenAt
			}
		}
		delete(entries, oldestKey)
	}
}
