package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// tokenBucket adapts a rate.Limiter to the RateLimiter interface.
type tokenBucket struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a token bucket limiter allowing rps requests per
// second with the given burst. A burst below 1 is raised to 1.
func NewRateLimiter(rps float64, burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter allows a request.
func (b *tokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}
