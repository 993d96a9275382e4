// Package rfc9211 renders the Cache-Status response header field
// (RFC 9211), which reports how a cache handled a request.
package rfc9211

import (
	"fmt"
	"strings"
)

const cacheName = "cachetrip"

// FwdReason is the reason a request was forwarded toward the origin.
type FwdReason string

const (
	// FwdReasonBypass: the cache was configured to not handle this
	// request.
	FwdReasonBypass FwdReason = "bypass"
	// FwdReasonMethod: the request method's semantics require the
	// request to be forwarded.
	FwdReasonMethod FwdReason = "method"
	// FwdReasonUriMiss: no stored response matched the request URI.
	FwdReasonUriMiss FwdReason = "uri-miss"
	// FwdReasonVaryMiss: stored responses matched the URI but none
	// could be selected with the request's header fields.
	FwdReasonVaryMiss FwdReason = "vary-miss"
	// FwdReasonMiss: no stored response could satisfy the request.
	FwdReasonMiss FwdReason = "miss"
	// FwdReasonStale: a response was selected but it was stale.
	FwdReasonStale FwdReason = "stale"
)

// CacheStatus accumulates the parameters of one Cache-Status entry.
// The zero value renders as a plain hit once Hit is called.
type CacheStatus struct {
	hit       bool
	FwdReason FwdReason
	FwdStatus int
	Stored    bool
	// TimeToLive is the remaining freshness in seconds; negative
	// for stale responses.
	TimeToLive int
	HasTTL     bool
	detail     string
}

// Hit marks the response as served from cache without going forward.
func (cs *CacheStatus) Hit() {
	cs.hit = true
	cs.FwdReason = ""
}

// Forward marks the request as forwarded for the given reason.
func (cs *CacheStatus) Forward(reason FwdReason) {
	cs.hit = false
	cs.FwdReason = reason
}

// TTL records the remaining freshness of the served response.
func (cs *CacheStatus) TTL(seconds int) {
	cs.TimeToLive = seconds
	cs.HasTTL = true
}

// Detail attaches an implementation-specific detail parameter.
func (cs *CacheStatus) Detail(detail string) {
	cs.detail = detail
}

// String renders the field value, e.g. "cachetrip; hit; ttl=42" or
// "cachetrip; fwd=stale; fwd-status=304; stored".
func (cs *CacheStatus) String() string {
	var b strings.Builder
	b.WriteString(cacheName)
	if cs.hit {
		b.WriteString("; hit")
	} else if cs.FwdReason != "" {
		fmt.Fprintf(&b, "; fwd=%s", cs.FwdReason)
		if cs.FwdStatus != 0 {
			fmt.Fprintf(&b, "; fwd-status=%d", cs.FwdStatus)
		}
		if cs.Stored {
			b.WriteString("; stored")
		}
	}
	if cs.HasTTL {
		fmt.Fprintf(&b, "; ttl=%d", cs.TimeToLive)
	}
	if cs.detail != "" {
		fmt.Fprintf(&b, "; detail=%s", cs.detail)
	}
	return b.String()
}
