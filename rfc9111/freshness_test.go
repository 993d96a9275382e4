package rfc9111

import (
	"net/http"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	receivedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		elapsed time.Duration
		meta    Meta
		want    Freshness
	}{
		{
			"fresh within max-age",
			10 * time.Second,
			Meta{MaxAge: time.Minute, HasMaxAge: true},
			Fresh,
		},
		{
			"stale after max-age",
			70 * time.Second,
			Meta{MaxAge: time.Minute, HasMaxAge: true},
			Stale,
		},
		{
			"stale exactly at max-age",
			time.Minute,
			Meta{MaxAge: time.Minute, HasMaxAge: true},
			Stale,
		},
		{
			"fresh within expires",
			10 * time.Second,
			Meta{ExpiresAt: receivedAt.Add(time.Hour)},
			Fresh,
		},
		{
			"stale after expires",
			2 * time.Hour,
			Meta{ExpiresAt: receivedAt.Add(time.Hour)},
			Stale,
		},
		{
			"no-cache always revalidates",
			0,
			Meta{MaxAge: time.Hour, HasMaxAge: true, NoCache: true},
			MustRevalidate,
		},
		{
			"must-revalidate directive",
			0,
			Meta{MaxAge: time.Hour, HasMaxAge: true, MustRevalidate: true},
			MustRevalidate,
		},
		{
			"no freshness information",
			0,
			Meta{ETag: `"x"`},
			MustRevalidate,
		},
		{
			"max-age zero is immediately stale",
			0,
			Meta{MaxAge: 0, HasMaxAge: true},
			Stale,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(receivedAt.Add(tt.elapsed), receivedAt, 0, tt.meta)
			if got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyCountsInitialAge(t *testing.T) {
	receivedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	meta := Meta{MaxAge: time.Minute, HasMaxAge: true}
	// 30s old on arrival plus 40s residence exceeds a 60s lifetime.
	got := Classify(receivedAt.Add(40*time.Second), receivedAt, 30*time.Second, meta)
	if got != Stale {
		t.Errorf("Classify = %v, want Stale", got)
	}
}

func TestExtractMeta(t *testing.T) {
	header := http.Header{}
	header.Set("Cache-Control", "max-age=120, must-revalidate")
	header.Set("Etag", `"abc"`)
	header.Set("Last-Modified", "Sun, 06 Nov 1994 08:49:37 GMT")
	header.Set("Expires", "Mon, 07 Nov 1994 08:49:37 GMT")

	meta := ExtractMeta(header)
	if !meta.HasMaxAge || meta.MaxAge != 2*time.Minute {
		t.Errorf("MaxAge = %v, %v", meta.MaxAge, meta.HasMaxAge)
	}
	if !meta.MustRevalidate || meta.NoCache {
		t.Errorf("Directive flags wrong: %+v", meta)
	}
	if meta.ETag != `"abc"` {
		t.Errorf("ETag = %q", meta.ETag)
	}
	if meta.LastModified == "" || meta.ExpiresAt.IsZero() {
		t.Errorf("Validators not extracted: %+v", meta)
	}
}

func TestExtractMetaMalformedExpires(t *testing.T) {
	header := http.Header{}
	header.Set("Expires", "0")
	meta := ExtractMeta(header)
	if !meta.ExpiresAt.IsZero() {
		t.Errorf("Malformed Expires not dropped: %v", meta.ExpiresAt)
	}
	// Without any other freshness info the entry always revalidates.
	if got := Classify(time.Now(), time.Now(), 0, meta); got != MustRevalidate {
		t.Errorf("Classify = %v, want MustRevalidate", got)
	}
}
