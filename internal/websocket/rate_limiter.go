package websocket

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter limits inbound frames per connection: burst frames at once,
// refilled over interval.
type rateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// newRateLimiter returns nil when limiting is disabled (burst <= 0); a nil
// limiter allows everything.
func newRateLimiter(burst int, interval time.Duration) *rateLimiter {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst),
		now:     time.Now,
	}
}

func (rl *rateLimiter) allow() bool {
	if rl == nil {
		return true
	}
	return rl.limiter.AllowN(rl.now(), 1)
}
