// Package cachetrip is a caching http.RoundTripper. It sits between a
// client and the network, storing and replaying responses per HTTP
// caching semantics (RFC 9111 subset): freshness evaluation,
// conditional revalidation with ETag/Last-Modified validators, and
// invalidation of stored responses on unsafe methods. Storage is
// pluggable; filesystem, in-memory LRU, SQLite and Redis backends are
// provided by the storage package.
//
// Caching is best effort: any failure inside the cache layer degrades
// to an uncached round trip rather than failing the request. Only
// transport errors surface to the caller.
package cachetrip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	cachekey "github.com/cachetrip/cachetrip/pkg/cache-key"
	"github.com/cachetrip/cachetrip/rfc9111"
	"github.com/cachetrip/cachetrip/rfc9211"
	"github.com/cachetrip/cachetrip/storage"
)

// Config configures a caching transport.
type Config struct {
	// Store holds cache entries. Defaults to an in-memory LRU store.
	Store storage.Store
	// Transport sends requests to the network.
	// Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// StaleOnError allows serving a stale stored response when
	// revalidation fails with a transport error. Off by default;
	// the error is surfaced instead.
	StaleOnError bool
	// Logger to use. Logging is disabled if nil.
	Logger *zerolog.Logger
}

// Transport is a caching http.RoundTripper.
//
// A Transport is safe for concurrent use. Two concurrent misses for
// the same key may both fetch and both store; the last write wins,
// which is self-correcting within the next freshness window.
type Transport struct {
	store        storage.Store
	next         http.RoundTripper
	staleOnError bool
	log          zerolog.Logger

	// now is the freshness clock, swappable in tests.
	now func() time.Time
}

// New creates a caching transport from the given config.
func New(config Config) *Transport {
	store := config.Store
	if store == nil {
		store = storage.NewMemoryStore(storage.DefaultMemorySize)
	}
	next := config.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	return &Transport{
		store:        store,
		next:         next,
		staleOnError: config.StaleOnError,
		log:          logger,
		now:          time.Now,
	}
}

// Client returns an http.Client using this transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if rfc9111.UnsafeMethod(req.Method) {
		return t.writeThrough(req)
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		// Safe but uncacheable methods (OPTIONS, TRACE) pass through.
		return t.send(req)
	}

	primary := cachekey.Primary(req.Method, req.URL)
	entry := t.lookup(req.Context(), primary, req.Header)
	if entry == nil {
		return t.fetchAndStore(req, primary)
	}

	freshness := rfc9111.Classify(t.now(), entry.ReceivedAt, entry.InitialAge, metaOf(entry))
	t.log.Trace().
		Str("key", entry.Key).
		Stringer("freshness", freshness).
		Msg("Selected stored response")

	if freshness == rfc9111.Fresh {
		cs := rfc9211.CacheStatus{}
		cs.Hit()
		cs.TTL(t.remainingTTL(entry))
		t.logRequest(req, &cs)
		return t.storedResponse(req, entry, &cs), nil
	}
	return t.revalidate(req, entry, primary)
}

// lookup runs the two-phase key resolution: scan all variants stored
// under the primary key, then select the one whose Vary-selected
// header values match the current request. Storage failures count as
// misses.
func (t *Transport) lookup(ctx context.Context, primary string, requestHeader http.Header) *storage.Entry {
	var match *storage.Entry
	err := t.store.Scan(ctx, primary, func(entry *storage.Entry) bool {
		if varyMatches(entry, requestHeader) {
			match = entry
			return false
		}
		return true
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.log.Debug().Err(err).Str("key", primary).Msg("Could not scan stored responses")
		return nil
	}
	return match
}

// varyMatches re-derives the Vary selection from the current request
// and compares it against the stored request snapshot.
func varyMatches(entry *storage.Entry, requestHeader http.Header) bool {
	for _, name := range entry.Vary {
		if requestHeader.Get(name) != entry.RequestHeader.Get(name) {
			return false
		}
	}
	return true
}

// fetchAndStore forwards a request on a cache miss and stores the
// response when it is cacheable. The response is returned to the
// caller either way.
func (t *Transport) fetchAndStore(req *http.Request, primary string) (*http.Response, error) {
	requestedAt := t.now()
	res, err := t.send(req)
	if err != nil {
		return nil, err
	}
	cs := rfc9211.CacheStatus{}
	cs.Forward(rfc9211.FwdReasonUriMiss)

	if !rfc9111.MustNotStore(req, res) {
		if entry, err := t.storeResponse(req, res, primary, requestedAt); err != nil {
			t.log.Warn().Err(err).Str("url", req.URL.String()).Msg("Could not write response to cache")
		} else {
			cs.Stored = true
			t.log.Trace().Str("key", entry.Key).Msg("Stored response")
		}
	}
	t.logRequest(req, &cs)
	res.Header.Add("Cache-Status", cs.String())
	return res, nil
}

// storeResponse drains the response body, persists a cache entry, and
// replaces the body so the caller can still read it. Failures leave
// the response intact.
func (t *Transport) storeResponse(req *http.Request, res *http.Response, primary string, requestedAt time.Time) (*storage.Entry, error) {
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	res.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	receivedAt := t.now()
	vary := rfc9111.Vary(res.Header)
	entry := &storage.Entry{
		Key:           cachekey.Variant(primary, vary, req.Header),
		StatusCode:    res.StatusCode,
		Header:        res.Header.Clone(),
		Body:          body,
		RequestHeader: varySnapshot(vary, req.Header),
		Vary:          vary,
		RequestedAt:   requestedAt,
		ReceivedAt:    receivedAt,
		InitialAge:    rfc9111.InitialAge(res.Header, requestedAt, receivedAt),
	}
	applyMeta(entry, rfc9111.ExtractMeta(res.Header))

	if err := t.store.Put(req.Context(), entry.Key, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// storedResponse builds an http.Response from a cache entry, adding
// the Age header mandated by the standard and the Cache-Status field.
func (t *Transport) storedResponse(req *http.Request, entry *storage.Entry, cs *rfc9211.CacheStatus) *http.Response {
	header := entry.Header.Clone()
	header.Set("Age", rfc9111.FormatDeltaSeconds(
		rfc9111.CurrentAge(entry.InitialAge, entry.ReceivedAt, t.now())))
	header.Add("Cache-Status", cs.String())
	body := entry.Body
	if req.Method == http.MethodHead {
		body = nil
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// remainingTTL is the freshness left for a stored entry in seconds,
// negative once stale. Entries without explicit lifetime report 0.
func (t *Transport) remainingTTL(entry *storage.Entry) int {
	var lifetime time.Duration
	switch {
	case entry.HasMaxAge:
		lifetime = entry.MaxAge
	case !entry.ExpiresAt.IsZero():
		lifetime = entry.ExpiresAt.Sub(entry.ReceivedAt)
	default:
		return 0
	}
	ttl := lifetime - rfc9111.CurrentAge(entry.InitialAge, entry.ReceivedAt, t.now())
	return int(ttl / time.Second)
}

func (t *Transport) send(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req)
}

func (t *Transport) logRequest(req *http.Request, cs *rfc9211.CacheStatus) {
	isHit := 0
	if cs.FwdReason == "" {
		isHit = 1
	}
	t.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("fwd", string(cs.FwdReason)).
		Bool("stored", cs.Stored).
		Int("hit", isHit).
		Msg("Handled request")
}

// varySnapshot copies the Vary-selected request header values needed
// to evaluate future lookups against this entry.
func varySnapshot(vary []string, requestHeader http.Header) http.Header {
	snapshot := make(http.Header, len(vary))
	for _, name := range vary {
		for _, value := range requestHeader.Values(name) {
			snapshot.Add(name, value)
		}
	}
	return snapshot
}

func metaOf(entry *storage.Entry) rfc9111.Meta {
	return rfc9111.Meta{
		MaxAge:         entry.MaxAge,
		HasMaxAge:      entry.HasMaxAge,
		ExpiresAt:      entry.ExpiresAt,
		ETag:           entry.ETag,
		LastModified:   entry.LastModified,
		NoCache:        entry.NoCache,
		MustRevalidate: entry.MustRevalidate,
	}
}

func applyMeta(entry *storage.Entry, meta rfc9111.Meta) {
	entry.MaxAge = meta.MaxAge
	entry.HasMaxAge = meta.HasMaxAge
	entry.ExpiresAt = meta.ExpiresAt
	entry.ETag = meta.ETag
	entry.LastModified = meta.LastModified
	entry.NoCache = meta.NoCache
	entry.MustRevalidate = meta.MustRevalidate
}
