package rfc9111

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUnsafeMethod(t *testing.T) {
	for method, unsafe := range map[string]bool{
		"GET": false, "HEAD": false, "OPTIONS": false, "TRACE": false,
		"POST": true, "PUT": true, "DELETE": true, "PATCH": true,
		"PROPFIND": true, // unknown safety counts as unsafe
	} {
		if got := UnsafeMethod(method); got != unsafe {
			t.Errorf("UnsafeMethod(%q) = %v, want %v", method, got, unsafe)
		}
	}
}

func TestNonErrorStatus(t *testing.T) {
	for code, ok := range map[int]bool{
		200: true, 204: true, 301: true, 404: false, 500: false, 100: false,
	} {
		if got := NonErrorStatus(code); got != ok {
			t.Errorf("NonErrorStatus(%d) = %v, want %v", code, got, ok)
		}
	}
}

func TestInvalidationURLs(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.com/items", nil)
	res := &http.Response{Header: http.Header{}}
	res.Header.Set("Location", "/items/42")
	res.Header.Set("Content-Location", "http://example.com/items/latest")

	urls := InvalidationURLs(req, res)
	if len(urls) != 3 {
		t.Fatalf("Got %d URLs: %v", len(urls), urls)
	}
	if urls[0].String() != "http://example.com/items" {
		t.Errorf("Target URL is %s", urls[0])
	}
	if urls[1].String() != "http://example.com/items/42" {
		t.Errorf("Location URL is %s", urls[1])
	}
}

func TestInvalidationURLsSkipsCrossOrigin(t *testing.T) {
	req := httptest.NewRequest("DELETE", "http://example.com/items", nil)
	res := &http.Response{Header: http.Header{}}
	res.Header.Set("Location", "http://evil.example.net/items")

	urls := InvalidationURLs(req, res)
	if len(urls) != 1 {
		t.Fatalf("Cross-origin URL not skipped: %v", urls)
	}
}
