package rfc9111

import (
	"net/http"
	"net/url"
	"strings"
)

// UnsafeMethod reports whether a request method may change state on
// the origin and therefore requires invalidating stored responses.
// Methods whose safety is unknown count as unsafe (RFC 9111 §4.4).
func UnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// NonErrorStatus reports whether a status code counts as a non-error
// response for invalidation purposes: 2xx or 3xx.
func NonErrorStatus(code int) bool {
	return code >= 200 && code < 400
}

// InvalidationURLs enumerates the URLs whose stored responses must be
// invalidated after a successful unsafe request: the target URL itself
// plus any same-origin Location and Content-Location URLs from the
// response. Cross-origin URLs are never invalidated.
func InvalidationURLs(req *http.Request, res *http.Response) []*url.URL {
	urls := []*url.URL{req.URL}
	for _, field := range []string{"Location", "Content-Location"} {
		value := res.Header.Get(field)
		if value == "" {
			continue
		}
		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		resolved := req.URL.ResolveReference(ref)
		if sameOrigin(req.URL, resolved) {
			urls = append(urls, resolved)
		}
	}
	return urls
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}
