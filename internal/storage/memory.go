package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryBacking 内存实现，用于测试与临时模式
// MemoryBacking is an in-process Backing used by tests and ephemeral mode.
type MemoryBacking struct {
	mu       sync.Mutex
	entries  map[string]Entry
	capacity int64
	used     int64
	closed   bool
}

// NewMemoryBacking creates an empty backing. capacity <= 0 means DefaultCapacity.
func NewMemoryBacking(capacity int64) *MemoryBacking {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryBacking{
		entries:  make(map[string]Entry),
		capacity: capacity,
	}
}

func (m *MemoryBacking) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	e, ok := m.entries[key]
	return e.Value, ok, nil
}

func (m *MemoryBacking) Set(key, value string) error {
	return m.put(Entry{Key: key, Value: value})
}

func (m *MemoryBacking) SetDisposable(key, value string) error {
	return m.put(Entry{Key: key, Value: value, Disposable: true})
}

func (m *MemoryBacking) put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	next := m.used + Cost(e.Key, e.Value)
	if prev, ok := m.entries[e.Key]; ok {
		next -= Cost(prev.Key, prev.Value)
	}
	if next > m.capacity {
		return fmt.Errorf("set %q (%d > %d bytes): %w", e.Key, next, m.capacity, ErrQuotaExceeded)
	}
	m.entries[e.Key] = e
	m.used = next
	return nil
}

func (m *MemoryBacking) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if prev, ok := m.entries[key]; ok {
		m.used -= Cost(prev.Key, prev.Value)
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBacking) Entries() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryBacking) Capacity() int64 {
	return m.capacity
}

func (m *MemoryBacking) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
