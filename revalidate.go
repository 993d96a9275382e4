package cachetrip

import (
	"net/http"
	"time"

	"github.com/cachetrip/cachetrip/rfc9111"
	"github.com/cachetrip/cachetrip/rfc9211"
	"github.com/cachetrip/cachetrip/storage"
)

// revalidate confirms a stale stored response with the origin before
// reuse. Entries with validators get a conditional request; entries
// without are simply refetched and replaced.
//
// A 304 freshens the stored entry: the body is retained byte for byte,
// the freshening header fields and timestamps are replaced, and the
// entry is written back. Any 2xx replaces the entry wholesale. A
// transport error surfaces to the caller unless StaleOnError is set,
// in which case the stale entry is served as is.
func (t *Transport) revalidate(req *http.Request, entry *storage.Entry, primary string) (*http.Response, error) {
	if !entry.HasValidator() {
		t.log.Trace().Str("key", entry.Key).Msg("Stored response has no validator, refetching")
		return t.fetchAndStore(req, primary)
	}

	conditional := rfc9111.ConditionalRequest(req, entry.ETag, entry.LastModified)
	requestedAt := t.now()
	res, err := t.send(conditional)
	if err != nil {
		if t.staleOnError {
			t.log.Debug().Err(err).Str("key", entry.Key).Msg("Revalidation failed, serving stale")
			cs := rfc9211.CacheStatus{}
			cs.Hit()
			cs.TTL(t.remainingTTL(entry))
			cs.Detail("stale-on-error")
			return t.storedResponse(req, entry, &cs), nil
		}
		return nil, err
	}

	if res.StatusCode == http.StatusNotModified {
		res.Body.Close()
		freshened := t.freshenEntry(entry, res, requestedAt)
		if err := t.store.Put(req.Context(), freshened.Key, freshened); err != nil {
			t.log.Warn().Err(err).Str("key", freshened.Key).Msg("Could not write freshened entry")
		}
		cs := rfc9211.CacheStatus{}
		cs.Forward(rfc9211.FwdReasonStale)
		cs.FwdStatus = http.StatusNotModified
		cs.Stored = true
		t.logRequest(req, &cs)
		return t.storedResponse(req, freshened, &cs), nil
	}

	// Any full response replaces the stored entry. A response that is
	// no longer cacheable evicts it.
	if rfc9111.MustNotStore(req, res) {
		if err := t.store.Delete(req.Context(), entry.Key); err != nil {
			t.log.Debug().Err(err).Str("key", entry.Key).Msg("Could not delete replaced entry")
		}
		cs := rfc9211.CacheStatus{}
		cs.Forward(rfc9211.FwdReasonStale)
		cs.FwdStatus = res.StatusCode
		t.logRequest(req, &cs)
		res.Header.Add("Cache-Status", cs.String())
		return res, nil
	}

	cs := rfc9211.CacheStatus{}
	cs.Forward(rfc9211.FwdReasonStale)
	cs.FwdStatus = res.StatusCode
	if replacement, err := t.storeResponse(req, res, primary, requestedAt); err != nil {
		t.log.Warn().Err(err).Str("url", req.URL.String()).Msg("Could not write replacement entry")
	} else {
		cs.Stored = true
		// The replacement may select a different variant key.
		if replacement.Key != entry.Key {
			if err := t.store.Delete(req.Context(), entry.Key); err != nil {
				t.log.Debug().Err(err).Str("key", entry.Key).Msg("Could not delete superseded entry")
			}
		}
	}
	t.logRequest(req, &cs)
	res.Header.Add("Cache-Status", cs.String())
	return res, nil
}

// freshenEntry builds the successor of a stored entry after a 304:
// same body, selectively merged headers, refreshed timestamps and
// freshness metadata.
func (t *Transport) freshenEntry(entry *storage.Entry, notModified *http.Response, requestedAt time.Time) *storage.Entry {
	receivedAt := t.now()
	merged := rfc9111.FreshenHeader(entry.Header, notModified.Header)
	freshened := entry.Clone()
	freshened.Header = merged
	freshened.RequestedAt = requestedAt
	freshened.ReceivedAt = receivedAt
	freshened.InitialAge = rfc9111.InitialAge(notModified.Header, requestedAt, receivedAt)
	freshened.Vary = rfc9111.Vary(merged)
	applyMeta(freshened, rfc9111.ExtractMeta(merged))
	// The key keeps its original variant suffix; a 304 cannot change
	// which request headers selected this representation.
	freshened.Key = entry.Key
	return freshened
}
