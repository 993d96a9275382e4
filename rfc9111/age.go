package rfc9111

import (
	"net/http"
	"strconv"
	"time"
)

// InitialAge estimates how old a response already was when it arrived,
// per the age calculation of RFC 9111 §4.2.3:
//
//	apparent_age        = max(0, response_time - date_value)
//	response_delay      = response_time - request_time
//	corrected_age_value = age_value + response_delay
//	initial_age         = max(apparent_age, corrected_age_value)
//
// requestedAt is the clock at the time the request was sent and
// receivedAt the clock when the response arrived.
func InitialAge(header http.Header, requestedAt, receivedAt time.Time) time.Duration {
	apparentAge := receivedAt.Sub(DateValue(header, receivedAt))
	if apparentAge < 0 {
		apparentAge = 0
	}
	responseDelay := receivedAt.Sub(requestedAt)
	if responseDelay < 0 {
		responseDelay = 0
	}
	correctedAgeValue := ageValue(header) + responseDelay
	if apparentAge > correctedAgeValue {
		return apparentAge
	}
	return correctedAgeValue
}

// CurrentAge is the total age of a stored response at the given
// instant: the age it had when stored plus its residence time.
func CurrentAge(initialAge time.Duration, receivedAt, now time.Time) time.Duration {
	return initialAge + now.Sub(receivedAt)
}

// FormatDeltaSeconds renders a duration as the delta-seconds form used
// by the Age header.
func FormatDeltaSeconds(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return strconv.FormatInt(seconds, 10)
}

// ageValue returns the Age header in arithmetic form, or 0 when absent
// or malformed.
func ageValue(header http.Header) time.Duration {
	value := header.Get("Age")
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
