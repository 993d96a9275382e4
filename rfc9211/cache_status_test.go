package rfc9211

import "testing"

func TestCacheStatusString(t *testing.T) {
	tests := []struct {
		name string
		fill func(cs *CacheStatus)
		want string
	}{
		{
			"hit with ttl",
			func(cs *CacheStatus) {
				cs.Hit()
				cs.TTL(42)
			},
			"cachetrip; hit; ttl=42",
		},
		{
			"uri miss stored",
			func(cs *CacheStatus) {
				cs.Forward(FwdReasonUriMiss)
				cs.Stored = true
			},
			"cachetrip; fwd=uri-miss; stored",
		},
		{
			"stale revalidated",
			func(cs *CacheStatus) {
				cs.Forward(FwdReasonStale)
				cs.FwdStatus = 304
				cs.Stored = true
			},
			"cachetrip; fwd=stale; fwd-status=304; stored",
		},
		{
			"unsafe method",
			func(cs *CacheStatus) {
				cs.Forward(FwdReasonMethod)
			},
			"cachetrip; fwd=method",
		},
		{
			"hit with detail",
			func(cs *CacheStatus) {
				cs.Hit()
				cs.Detail("stale-on-error")
			},
			"cachetrip; hit; detail=stale-on-error",
		},
		{
			"negative ttl",
			func(cs *CacheStatus) {
				cs.Forward(FwdReasonStale)
				cs.TTL(-7)
			},
			"cachetrip; fwd=stale; ttl=-7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cs CacheStatus
			tt.fill(&cs)
			if got := cs.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHitClearsForwardReason(t *testing.T) {
	var cs CacheStatus
	cs.Forward(FwdReasonStale)
	cs.Hit()
	if got := cs.String(); got != "cachetrip; hit" {
		t.Errorf("String() = %q", got)
	}
}
