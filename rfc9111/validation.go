package rfc9111

import (
	"net/http"
)

// freshenFields are the headers a 304 response may refresh on a stored
// entry. All other stored header fields keep their original values.
var freshenFields = []string{
	"Cache-Control",
	"Date",
	"Etag",
	"Expires",
	"Last-Modified",
	"Vary",
}

// ConditionalRequest clones req and adds the preconditions for
// revalidating a stored response: If-None-Match when an entity tag is
// known and If-Modified-Since when a Last-Modified value is known.
// Both are sent when both validators exist (RFC 9111 §4.3.1).
func ConditionalRequest(req *http.Request, etag, lastModified string) *http.Request {
	conditional := req.Clone(req.Context())
	if etag != "" {
		conditional.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		conditional.Header.Set("If-Modified-Since", lastModified)
	}
	return conditional
}

// FreshenHeader merges a 304 response into stored headers, per the
// selective update of RFC 9111 §3.2: only the freshening fields
// present in the 304 replace their stored counterparts.
func FreshenHeader(stored, notModified http.Header) http.Header {
	merged := make(http.Header, len(stored))
	for name, values := range stored {
		merged[name] = append([]string(nil), values...)
	}
	for _, field := range freshenFields {
		if values := notModified.Values(field); len(values) > 0 {
			merged.Del(field)
			for _, value := range values {
				merged.Add(field, value)
			}
		}
	}
	return merged
}
