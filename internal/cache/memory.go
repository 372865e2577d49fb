package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultCapacity bounds each category's entry count when no configuration
// overrides it. LRU eviction protects memory under high key cardinality
// (one key per queried address) independently of TTL.
const DefaultCapacity = 1024

type memoryEntry struct {
	category  string
	key       string
	value     any
	expiresAt time.Time
	elem      *list.Element
}

type memoryCategory struct {
	entries map[string]*memoryEntry
	lru     *list.List // front = most recently used
}

// Memory is an in-process Cache with a bounded LRU per category. The TTL
// table is fixed at construction; unknown categories fall back to the
// shortest configured TTL so a typo never caches for hours.
type Memory struct {
	mu         sync.Mutex
	categories map[string]*memoryCategory
	ttls       map[string]time.Duration
	minTTL     time.Duration
	capacity   int

	hits      int64
	misses    int64
	sets      int64
	evictions int64

	now func() time.Time
}

// NewMemory builds an in-memory cache over the given TTL table. A nil or
// empty table uses DefaultTTLs; capacity <= 0 uses DefaultCapacity.
func NewMemory(ttls map[string]time.Duration, capacity int) *Memory {
	if len(ttls) == 0 {
		ttls = DefaultTTLs()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	min := time.Duration(0)
	for _, ttl := range ttls {
		if min == 0 || ttl < min {
			min = ttl
		}
	}
	return &Memory{
		categories: make(map[string]*memoryCategory),
		ttls:       ttls,
		minTTL:     min,
		capacity:   capacity,
		now:        time.Now,
	}
}

func (m *Memory) ttlFor(category string) time.Duration {
	if ttl, ok := m.ttls[category]; ok {
		return ttl
	}
	return m.minTTL
}

// Get returns the cached value for (category, key). Expired entries are
// removed and reported as misses.
func (m *Memory) Get(_ context.Context, category, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.categories[category]
	if !ok {
		m.misses++
		return nil, false
	}
	entry, ok := cat.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		cat.lru.Remove(entry.elem)
		delete(cat.entries, key)
		m.misses++
		return nil, false
	}
	cat.lru.MoveToFront(entry.elem)
	m.hits++
	return entry.value, true
}

// Set stores value under (category, key) with the category's fixed TTL,
// evicting the least recently used entry if the category is full.
func (m *Memory) Set(_ context.Context, category, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.categories[category]
	if !ok {
		cat = &memoryCategory{
			entries: make(map[string]*memoryEntry),
			lru:     list.New(),
		}
		m.categories[category] = cat
	}

	if entry, ok := cat.entries[key]; ok {
		entry.value = value
		entry.expiresAt = m.now().Add(m.ttlFor(category))
		cat.lru.MoveToFront(entry.elem)
		m.sets++
		return
	}

	if len(cat.entries) >= m.capacity {
		oldest := cat.lru.Back()
		if oldest != nil {
			victim := oldest.Value.(*memoryEntry)
			cat.lru.Remove(oldest)
			delete(cat.entries, victim.key)
			m.evictions++
		}
	}

	entry := &memoryEntry{
		category:  category,
		key:       key,
		value:     value,
		expiresAt: m.now().Add(m.ttlFor(category)),
	}
	entry.elem = cat.lru.PushFront(entry)
	cat.entries[key] = entry
	m.sets++
}

// Invalidate drops (category, key) if present.
func (m *Memory) Invalidate(_ context.Context, category, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.categories[category]
	if !ok {
		return
	}
	if entry, ok := cat.entries[key]; ok {
		cat.lru.Remove(entry.elem)
		delete(cat.entries, key)
	}
}

// Stats returns a snapshot of the cache counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := 0
	for _, cat := range m.categories {
		keys += len(cat.entries)
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		Sets:      m.sets,
		Evictions: m.evictions,
		HitRate:   hitRate(m.hits, m.misses),
		Keys:      keys,
	}
}
