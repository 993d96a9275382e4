// Package rfc9111 implements the subset of HTTP caching header
// semantics (RFC 9111) needed by a private response cache: directive
// parsing, age and freshness lifetime calculation, storability rules,
// conditional revalidation, and invalidation of stored responses.
package rfc9111

import (
	"strconv"
	"strings"
	"time"
)

// CacheControl holds the parsed directives of one or more
// Cache-Control field lines. Directive names are case-insensitive;
// when a directive repeats, the last occurrence wins.
type CacheControl struct {
	directives map[string]string
}

// ParseCacheControl parses the given Cache-Control field values.
func ParseCacheControl(values []string) CacheControl {
	m := make(map[string]string)
	for _, value := range values {
		for _, directive := range strings.Split(value, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			name, arg, _ := strings.Cut(directive, "=")
			// Arguments may use token or quoted-string form.
			m[strings.ToLower(name)] = strings.Trim(arg, `"`)
		}
	}
	return CacheControl{directives: m}
}

// Get returns the argument of the directive and whether it is present.
func (c CacheControl) Get(directive string) (string, bool) {
	val, ok := c.directives[directive]
	return val, ok
}

// Has reports whether the directive is present.
func (c CacheControl) Has(directive string) bool {
	_, ok := c.Get(directive)
	return ok
}

// NoStore reports the no-store directive.
func (c CacheControl) NoStore() bool { return c.Has("no-store") }

// NoCache reports the no-cache directive. The qualified form is
// treated as unqualified, which is the common cache behavior.
func (c CacheControl) NoCache() bool { return c.Has("no-cache") }

// MustRevalidate reports the must-revalidate directive.
func (c CacheControl) MustRevalidate() bool { return c.Has("must-revalidate") }

// MaxAge returns the max-age directive as a duration, along with
// whether the directive carried a valid delta-seconds argument. An
// unparseable argument reports false, which callers treat as absent
// freshness information (the conservative reading).
func (c CacheControl) MaxAge() (time.Duration, bool) {
	return c.deltaSeconds("max-age")
}

// SMaxAge returns the s-maxage directive as a duration.
func (c CacheControl) SMaxAge() (time.Duration, bool) {
	return c.deltaSeconds("s-maxage")
}

func (c CacheControl) deltaSeconds(directive string) (time.Duration, bool) {
	arg, ok := c.Get(directive)
	if !ok || arg == "" {
		return 0, false
	}
	seconds, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
