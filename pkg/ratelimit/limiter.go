package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// PerMinute builds a limiter that spaces requests evenly to stay under
// the given per-minute budget. Used by the exchange repositories so
// paginated history fetches respect public API limits.
func PerMinute(maxPerMinute int) *rate.Limiter {
	if maxPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1)
}
