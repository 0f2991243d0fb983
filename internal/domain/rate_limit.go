package domain

import (
	"time"
)

// RateLimitInfo represents rate limiting information for one client
type RateLimitInfo struct {
	IPAddress    string        `json:"ip_address"`
	RequestCount int64         `json:"request_count"`
	Limit        int64         `json:"limit"`
	WindowStart  time.Time     `json:"window_start"`
	TTL          time.Duration `json:"ttl"`
	IsAllowed    bool          `json:"is_allowed"`
}

// Remaining returns how many requests are left in the current window
func (r *RateLimitInfo) Remaining() int64 {
	if remaining := r.Limit - r.RequestCount; remaining > 0 {
		return remaining
	}
	return 0
}
