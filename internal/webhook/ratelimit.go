package webhook

import "golang.org/x/time/rate"

// RateLimiter bounds inbound webhook calls per minute.
// rpm <= 0 disables limiting.
type RateLimiter struct {
	limiter *rate.Limiter
	enabled bool
}

// NewRateLimiter creates a limiter allowing rpm requests per minute with the
// given burst.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if rpm <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		enabled: true,
	}
}

// Enabled reports whether limiting is active.
func (r *RateLimiter) Enabled() bool { return r.enabled }

// Allow reports whether one more request may proceed now.
func (r *RateLimiter) Allow() bool {
	if !r.enabled {
		return true
	}
	return r.limiter.Allow()
}
