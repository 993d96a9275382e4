// Package cachekey derives deterministic cache keys from requests.
//
// A key has two parts: a primary part built from the method and the
// normalized URL, and an optional variant suffix built from the request
// header values selected by the stored response's Vary field. The
// primary part (up to and including the separator) doubles as the scan
// prefix for finding every variant stored under a URL.
package cachekey

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const (
	methodSeparator = " "
	varySeparator   = "\t"
)

// Primary returns the cache key prefix for a method and URL, ending in
// the variant separator. Two URLs that normalize identically share a
// prefix; query strings are part of identity verbatim, in order.
func Primary(method string, u *url.URL) string {
	return method + methodSeparator + normalizeURL(u) + varySeparator
}

// Variant appends the Vary-selected request header values to a primary
// key. Header names are lowercased and sorted so the same selection
// always produces the same key, regardless of Vary field order.
func Variant(primary string, vary []string, requestHeader http.Header) string {
	if len(vary) == 0 {
		return primary
	}
	names := make([]string, 0, len(vary))
	for _, name := range vary {
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(primary)
	for _, name := range names {
		if name == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(requestHeader.Get(name))
	}
	return b.String()
}

// normalizeURL renders a URL in canonical absolute form: lowercase
// scheme and host, default port removed, empty path as "/", query kept
// exactly as sent. Reordering query parameters would change identity.
func normalizeURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if port := defaultPort(scheme); port != "" {
		host = strings.TrimSuffix(host, ":"+port)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	normalized := scheme + "://" + host + path
	if u.RawQuery != "" || u.ForceQuery {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
