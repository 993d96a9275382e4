package rfc9111

import (
	"testing"
	"time"
)

func TestParseCacheControl(t *testing.T) {
	tests := []struct {
		name      string
		values    []string
		directive string
		wantArg   string
		wantOk    bool
	}{
		{"simple", []string{"no-store"}, "no-store", "", true},
		{"argument", []string{"max-age=60"}, "max-age", "60", true},
		{"quoted argument", []string{`no-cache="set-cookie"`}, "no-cache", "set-cookie", true},
		{"case insensitive name", []string{"No-Store"}, "no-store", "", true},
		{"multiple directives", []string{"public, max-age=3600"}, "max-age", "3600", true},
		{"multiple field lines", []string{"public", "max-age=10"}, "max-age", "10", true},
		{"sloppy whitespace", []string{"public ,max-age=5"}, "max-age", "5", true},
		{"absent", []string{"public"}, "no-store", "", false},
		{"last wins", []string{"max-age=1, max-age=2"}, "max-age", "2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := ParseCacheControl(tt.values)
			arg, ok := cc.Get(tt.directive)
			if arg != tt.wantArg || ok != tt.wantOk {
				t.Errorf("Get(%q) = %q, %v; want %q, %v", tt.directive, arg, ok, tt.wantArg, tt.wantOk)
			}
		})
	}
}

func TestMaxAge(t *testing.T) {
	tests := []struct {
		value  string
		want   time.Duration
		wantOk bool
	}{
		{"max-age=60", time.Minute, true},
		{"max-age=0", 0, true},
		{"max-age", 0, false},
		{"max-age=", 0, false},
		{"max-age=sixty", 0, false},
		{"max-age=-1", 0, false},
		{"public", 0, false},
	}
	for _, tt := range tests {
		cc := ParseCacheControl([]string{tt.value})
		got, ok := cc.MaxAge()
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("MaxAge(%q) = %v, %v; want %v, %v", tt.value, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestDirectiveHelpers(t *testing.T) {
	cc := ParseCacheControl([]string{"no-store, no-cache, must-revalidate"})
	if !cc.NoStore() || !cc.NoCache() || !cc.MustRevalidate() {
		t.Errorf("Directive helpers missed directives: %+v", cc)
	}
}
