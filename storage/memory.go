package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the entry count used by NewMemoryStore when
// size is not positive.
const DefaultMemorySize = 1024

// MemoryStore is an in-process Store bounded by an LRU eviction
// policy. Memory usage is roughly size * average entry size, so pick
// the size with response bodies in mind.
type MemoryStore struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemoryStore creates a memory store holding at most size entries.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &MemoryStore{entries: entries}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return entry.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, entry *Entry) error {
	m.entries.Add(key, entry.Clone())
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

func (m *MemoryStore) Scan(ctx context.Context, prefix string, fn func(entry *Entry) bool) error {
	for _, key := range m.entries.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		entry, ok := m.entries.Peek(key)
		if !ok {
			continue
		}
		if !fn(entry.Clone()) {
			return nil
		}
	}
	return nil
}

// Len returns the number of entries currently held.
func (m *MemoryStore) Len() int {
	return m.entries.Len()
}
