package rfc9111

import (
	"net/http"
	"time"
)

// Freshness classifies a stored response at a point in time.
type Freshness int

const (
	// Fresh responses may be served without contacting the origin.
	Fresh Freshness = iota
	// Stale responses have outlived their freshness lifetime and
	// need revalidation before reuse.
	Stale
	// MustRevalidate responses need revalidation on every use,
	// either by directive or because they carry no freshness
	// information at all.
	MustRevalidate
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "must-revalidate"
	}
}

// Meta is the freshness metadata derived from a response when it is
// stored.
type Meta struct {
	MaxAge         time.Duration
	HasMaxAge      bool
	ExpiresAt      time.Time
	ETag           string
	LastModified   string
	NoCache        bool
	MustRevalidate bool
}

// ExtractMeta derives store-time freshness metadata from response
// headers. An Expires value that does not parse as an HTTP-date is
// dropped, leaving the response without explicit expiration.
func ExtractMeta(header http.Header) Meta {
	cc := ParseCacheControl(header.Values("Cache-Control"))
	meta := Meta{
		ETag:           header.Get("Etag"),
		LastModified:   header.Get("Last-Modified"),
		NoCache:        cc.NoCache(),
		MustRevalidate: cc.MustRevalidate(),
	}
	meta.MaxAge, meta.HasMaxAge = cc.MaxAge()
	if expires := header.Get("Expires"); expires != "" {
		if at, err := HTTPDate(expires); err == nil {
			meta.ExpiresAt = at
		}
	}
	return meta
}

// Classify decides whether a stored response can be served as is.
// receivedAt is the store-time clock, initialAge the age the response
// already had then.
//
// Responses without explicit freshness information classify as
// MustRevalidate rather than guessed-fresh: no heuristic lifetimes.
func Classify(now, receivedAt time.Time, initialAge time.Duration, meta Meta) Freshness {
	if meta.NoCache || meta.MustRevalidate {
		return MustRevalidate
	}
	lifetime, ok := freshnessLifetime(receivedAt, meta)
	if !ok {
		return MustRevalidate
	}
	if CurrentAge(initialAge, receivedAt, now) < lifetime {
		return Fresh
	}
	return Stale
}

// freshnessLifetime computes the lifetime per RFC 9111 §4.2.1, using
// the first match: max-age, then Expires relative to the stored-at
// time. No heuristic fallback.
func freshnessLifetime(receivedAt time.Time, meta Meta) (time.Duration, bool) {
	if meta.HasMaxAge {
		return meta.MaxAge, true
	}
	if !meta.ExpiresAt.IsZero() {
		return meta.ExpiresAt.Sub(receivedAt), true
	}
	return 0, false
}
