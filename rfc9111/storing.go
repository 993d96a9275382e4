package rfc9111

import (
	"net/http"
	"strings"
)

// ListHeader splits a comma-separated list field into its trimmed
// members, across repeated field lines.
func ListHeader(header http.Header, field string) []string {
	var list []string
	for _, value := range header.Values(field) {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

// Vary returns the response's Vary field list.
func Vary(header http.Header) []string {
	return ListHeader(header, "Vary")
}

// MustNotStore decides whether a response is ineligible for storage.
// The policy is deliberately conservative: only 200 responses to GET
// requests are stored, never with no-store (which is not overridable),
// never with Vary "*", and only when the response carries explicit
// freshness information or a validator. Nothing is guessed fresh.
func MustNotStore(req *http.Request, res *http.Response) bool {
	if req.Method != http.MethodGet || res.StatusCode != http.StatusOK {
		return true
	}
	cc := ParseCacheControl(res.Header.Values("Cache-Control"))
	if cc.NoStore() {
		return true
	}
	for _, field := range Vary(res.Header) {
		// A Vary of "*" means no request can ever match.
		if field == "*" {
			return true
		}
	}
	meta := ExtractMeta(res.Header)
	if _, ok := cc.SMaxAge(); !ok && !meta.HasMaxAge && meta.ExpiresAt.IsZero() &&
		meta.ETag == "" && meta.LastModified == "" {
		return true
	}
	return false
}
