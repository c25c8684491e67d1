// Package ratelimit paces catalog page requests and honours server-side
// back-off signals (429/503 with Retry-After).
//
// The catalog API publishes no quota headers, so the only signals available
// are an explicit Retry-After on throttled responses and the client-side
// delay between pages.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for shared back-off state.
const (
	RedisKeyBlockedUntil = "catalog:rate_limit:blocked_until"
	RedisKeyLastStatus   = "catalog:rate_limit:last_status"
)

// MaxBlock caps how long a single Retry-After may block requests.
const MaxBlock = 5 * time.Minute

// State is the current back-off state for the catalog API.
// It is shared across processes through Redis when a Redis client is configured.
type State struct {
	// BlockedUntil is the time before which no request should be sent.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastStatus is the HTTP status that produced the block.
	LastStatus int `json:"last_status"`
}

// IsBlocked reports whether requests must wait.
func (s *State) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// TimeUntilUnblock returns the remaining wait, or 0 if not blocked.
func (s *State) TimeUntilUnblock() time.Duration {
	d := time.Until(s.BlockedUntil)
	if d < 0 {
		return 0
	}
	return d
}

// IsThrottleStatus reports whether status signals server-side throttling.
func IsThrottleStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// ParseRetryAfter parses a Retry-After header (seconds or HTTP date).
// Returns 0 when the header is missing or invalid.
func ParseRetryAfter(headers http.Header) time.Duration {
	v := strings.TrimSpace(headers.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
