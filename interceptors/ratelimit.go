package interceptors

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/zoobzio/aspect"
)

// ErrRateLimited is returned when a non-blocking RateLimit has no token.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit admits calls through a token bucket shared by every member it
// is bound to.
type RateLimit struct {
	limiter *rate.Limiter
	block   bool
}

// NewRateLimit returns a RateLimit allowing r calls per second with bursts
// of up to burst calls.
func NewRateLimit(r rate.Limit, burst int) *RateLimit {
	return &RateLimit{limiter: rate.NewLimiter(r, burst)}
}

// Blocking makes calls wait for a token instead of failing. Waiting ends
// early with the context error when the invocation context is done.
func (l *RateLimit) Blocking() *RateLimit {
	l.block = true
	return l
}

// Intercept implements aspect.Interceptor.
func (l *RateLimit) Intercept(inv *aspect.Invocation) error {
	if l.block {
		if err := l.limiter.Wait(inv.Context()); err != nil {
			return err
		}
		return inv.Proceed()
	}
	if !l.limiter.Allow() {
		return fmt.Errorf("%w: %s", ErrRateLimited, inv.Method())
	}
	return inv.Proceed()
}
