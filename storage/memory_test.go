package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	entry := testEntry("GET http://example.com/m\t", "in memory")

	if err := store.Put(ctx, entry.Key, entry); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, entry.Key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Body) != "in memory" {
		t.Fatalf("Body is %s", got.Body)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	entry := testEntry("GET http://example.com/m\t", "immutable")
	if err := store.Put(ctx, entry.Key, entry); err != nil {
		t.Fatal(err)
	}

	// Mutations by the caller must not be visible through the cache.
	entry.Body[0] = 'X'
	got, err := store.Get(ctx, entry.Key)
	if err != nil {
		t.Fatal(err)
	}
	got.Body[0] = 'Y'
	got.Header.Set("Content-Type", "application/evil")

	again, err := store.Get(ctx, entry.Key)
	if err != nil {
		t.Fatal(err)
	}
	if string(again.Body) != "immutable" {
		t.Fatalf("Stored body mutated: %s", again.Body)
	}
	if again.Header.Get("Content-Type") != "text/plain" {
		t.Fatalf("Stored header mutated: %v", again.Header)
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, key, testEntry(key, key)); err != nil {
			t.Fatal(err)
		}
	}
	if store.Len() != 2 {
		t.Fatalf("Store holds %d entries", store.Len())
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Oldest entry not evicted: %v", err)
	}
}

func TestMemoryStoreScanStopsEarly(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	for _, key := range []string{"k1", "k2", "k3"} {
		if err := store.Put(ctx, key, testEntry(key, key)); err != nil {
			t.Fatal(err)
		}
	}
	var seen int
	if err := store.Scan(ctx, "k", func(e *Entry) bool {
		seen++
		return false
	}); err != nil {
		t.Fatal(err)
	}
	if seen != 1 {
		t.Fatalf("Scan visited %d entries after stop", seen)
	}
}
