package rfc9111

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMustNotStore(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		status   int
		header   map[string]string
		notStore bool
	}{
		{
			"explicit max-age",
			"GET", 200,
			map[string]string{"Cache-Control": "max-age=60"},
			false,
		},
		{
			"expires only",
			"GET", 200,
			map[string]string{"Expires": "Mon, 07 Nov 1994 08:49:37 GMT"},
			false,
		},
		{
			"validator only",
			"GET", 200,
			map[string]string{"Etag": `"v1"`},
			false,
		},
		{
			"no-store wins over max-age",
			"GET", 200,
			map[string]string{"Cache-Control": "no-store, max-age=60"},
			true,
		},
		{
			"vary star",
			"GET", 200,
			map[string]string{"Cache-Control": "max-age=60", "Vary": "*"},
			true,
		},
		{
			"no freshness and no validator",
			"GET", 200,
			map[string]string{"Content-Type": "text/plain"},
			true,
		},
		{
			"non-200 status",
			"GET", 404,
			map[string]string{"Cache-Control": "max-age=60"},
			true,
		},
		{
			"post request",
			"POST", 200,
			map[string]string{"Cache-Control": "max-age=60"},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/", nil)
			res := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			for name, value := range tt.header {
				res.Header.Set(name, value)
			}
			if got := MustNotStore(req, res); got != tt.notStore {
				t.Errorf("MustNotStore = %v, want %v", got, tt.notStore)
			}
		})
	}
}

func TestListHeader(t *testing.T) {
	header := http.Header{}
	header.Add("Vary", "Accept, Accept-Encoding")
	header.Add("Vary", " Accept-Language ")
	got := Vary(header)
	want := []string{"Accept", "Accept-Encoding", "Accept-Language"}
	if len(got) != len(want) {
		t.Fatalf("Vary = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Vary[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
