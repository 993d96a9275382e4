package cachetrip

import (
	"context"
	"net/http"
	"net/url"

	cachekey "github.com/cachetrip/cachetrip/pkg/cache-key"
	"github.com/cachetrip/cachetrip/rfc9111"
	"github.com/cachetrip/cachetrip/rfc9211"
	"github.com/cachetrip/cachetrip/storage"
)

// writeThrough forwards an unsafe request and, on a non-error
// response, invalidates every stored response for the target URL and
// for any same-origin Location and Content-Location URLs. All variants
// are removed regardless of Vary, since the set of future-relevant
// variants is unknown.
func (t *Transport) writeThrough(req *http.Request) (*http.Response, error) {
	res, err := t.send(req)
	if err != nil {
		return nil, err
	}
	if rfc9111.NonErrorStatus(res.StatusCode) {
		for _, u := range rfc9111.InvalidationURLs(req, res) {
			t.invalidateURL(req.Context(), u)
		}
	}
	cs := rfc9211.CacheStatus{}
	cs.Forward(rfc9211.FwdReasonMethod)
	t.logRequest(req, &cs)
	res.Header.Add("Cache-Status", cs.String())
	return res, nil
}

// Invalidate removes every stored response for the given URL,
// regardless of variant. It is the explicit-purge counterpart of the
// invalidation performed automatically after unsafe methods.
func (t *Transport) Invalidate(ctx context.Context, u *url.URL) {
	t.invalidateURL(ctx, u)
}

// invalidateURL deletes all stored GET and HEAD entries for a URL.
// Invalidation is best effort; failures are logged and the request
// still succeeds.
func (t *Transport) invalidateURL(ctx context.Context, u *url.URL) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		prefix := cachekey.Primary(method, u)
		var keys []string
		err := t.store.Scan(ctx, prefix, func(entry *storage.Entry) bool {
			keys = append(keys, entry.Key)
			return true
		})
		if err != nil {
			t.log.Warn().Err(err).Str("url", u.String()).Msg("Could not scan entries for invalidation")
			continue
		}
		for _, key := range keys {
			if err := t.store.Delete(ctx, key); err != nil {
				t.log.Warn().Err(err).Str("key", key).Msg("Could not invalidate entry")
				continue
			}
			t.log.Trace().Str("key", key).Msg("Invalidated stored response")
		}
	}
}
