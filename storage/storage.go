// Package storage defines the cache entry model and the persistence
// contract used by the caching transport. Any backend implementing
// Store is a valid drop-in: in-memory, filesystem, SQLite, Redis, or
// anything else that can hold serialized entries addressed by key.
package storage

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Get when no entry exists for the key.
// Backends also return it for entries that cannot be decoded, so a
// corrupt entry behaves exactly like a missing one.
var ErrNotFound = errors.New("storage: entry not found")

// Store is the persistence contract for cache entries.
//
// Implementations must be safe for concurrent use. Put and Delete for
// a given key must be serialized by the backend so that a concurrent
// Get never observes a partially written entry.
type Store interface {
	// Get returns the entry stored under key, or ErrNotFound.
	// The returned entry is owned by the caller; mutating it does
	// not affect the stored copy.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put stores the entry under key, replacing any previous entry.
	Put(ctx context.Context, key string, entry *Entry) error
	// Delete removes the entry stored under key.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Scan calls fn for every entry whose key starts with prefix,
	// until fn returns false or the entries are exhausted.
	// Iteration order is unspecified.
	Scan(ctx context.Context, prefix string, fn func(entry *Entry) bool) error
}

// Entry is one cached response together with the request metadata
// needed for Vary matching and the freshness metadata derived when the
// response was stored.
//
// An entry is immutable once written except for full replacement. A
// revalidation that returns 304 produces a new entry with the same
// body and selectively refreshed headers and timestamps.
type Entry struct {
	// Key is the full cache key, including the variant suffix.
	Key string `msgpack:"k"`

	StatusCode int         `msgpack:"s"`
	Header     http.Header `msgpack:"h"`
	Body       []byte      `msgpack:"b"`

	// RequestHeader is a snapshot of the Vary-selected headers of
	// the request that produced this entry.
	RequestHeader http.Header `msgpack:"rh"`
	// Vary is the response's declared Vary field list.
	Vary []string `msgpack:"v"`

	// RequestedAt is when the originating request was sent, and
	// ReceivedAt when its response arrived. Both are needed for age
	// correction; ReceivedAt doubles as the stored-at timestamp.
	RequestedAt time.Time `msgpack:"rq"`
	ReceivedAt  time.Time `msgpack:"rc"`

	// Freshness metadata derived from the response at store time.
	MaxAge         time.Duration `msgpack:"ma"`
	HasMaxAge      bool          `msgpack:"hm"`
	ExpiresAt      time.Time     `msgpack:"ex"`
	ETag           string        `msgpack:"et"`
	LastModified   string        `msgpack:"lm"`
	NoCache        bool          `msgpack:"nc"`
	MustRevalidate bool          `msgpack:"mr"`
	// InitialAge is the age the response already had when received,
	// per the Age and Date headers corrected for response delay.
	InitialAge time.Duration `msgpack:"ia"`
}

// HasValidator reports whether the entry carries an ETag or
// Last-Modified value usable for conditional revalidation.
func (e *Entry) HasValidator() bool {
	return e.ETag != "" || e.LastModified != ""
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Header = cloneHeader(e.Header)
	clone.RequestHeader = cloneHeader(e.RequestHeader)
	clone.Body = append([]byte(nil), e.Body...)
	clone.Vary = append([]string(nil), e.Vary...)
	return &clone
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	clone := make(http.Header, len(h))
	for name, values := range h {
		clone[name] = append([]string(nil), values...)
	}
	return clone
}

// Encode serializes an entry for backends that persist raw bytes.
func Encode(entry *Entry) ([]byte, error) {
	return msgpack.Marshal(entry)
}

// Decode deserializes an entry previously produced by Encode.
func Decode(data []byte) (*Entry, error) {
	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
