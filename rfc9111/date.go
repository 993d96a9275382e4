package rfc9111

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const imfDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// HTTPDate parses an HTTP-date field value. Recipients must accept the
// preferred IMF-fixdate format as well as the obsolete RFC 850 and
// asctime formats (RFC 9110 §5.6.7). Matching is case-insensitive, as
// relaxed for cache recipients.
func HTTPDate(value string) (time.Time, error) {
	normalized := normalizeDateValue(value)
	if date, err := time.Parse(imfDateLayout, normalized); err == nil {
		return date, nil
	}
	if date, err := time.Parse(time.RFC850, normalized); err == nil {
		return date, nil
	}
	if date, err := time.Parse(time.ANSIC, normalized); err == nil {
		return date, nil
	}
	return time.Time{}, fmt.Errorf("rfc9111: invalid HTTP-date %q", value)
}

// normalizeDateValue fixes the casing of day and month names so the
// layout-based parser accepts lowercased or uppercased inputs.
func normalizeDateValue(value string) string {
	fields := strings.Fields(strings.TrimSpace(value))
	for i, field := range fields {
		fields[i] = titleCaseToken(field)
	}
	return strings.Join(fields, " ")
}

func titleCaseToken(token string) string {
	out := []byte(strings.ToLower(token))
	upper := true
	for i := 0; i < len(out); i++ {
		c := out[i]
		if c >= 'a' && c <= 'z' {
			if upper {
				out[i] = c - 'a' + 'A'
				upper = false
			}
			continue
		}
		// Separators inside tokens like "06-Nov-94" or "GMT".
		upper = true
	}
	s := string(out)
	if strings.EqualFold(s, "gmt") || strings.EqualFold(s, "utc") {
		return strings.ToUpper(s)
	}
	return s
}

// DateValue returns the Date header of a stored response, or the
// fallback time when the field is missing or malformed (the time the
// message was received, per RFC 9110 §6.6.1).
func DateValue(header http.Header, fallback time.Time) time.Time {
	if value := header.Get("Date"); value != "" {
		if date, err := HTTPDate(value); err == nil {
			return date
		}
	}
	return fallback
}
