package interceptors

import (
	"context"
	"time"

	"github.com/zoobzio/aspect"
)

// Timeout bounds the invocation context with a deadline.
//
// Members observe the deadline through a context parameter, and deferred
// members through the await of their completion. A member that ignores its
// context runs to completion.
type Timeout struct {
	d time.Duration
}

// NewTimeout returns a Timeout with duration d.
func NewTimeout(d time.Duration) *Timeout {
	return &Timeout{d: d}
}

// Intercept implements aspect.Interceptor.
func (t *Timeout) Intercept(inv *aspect.Invocation) error {
	prev := inv.Context()
	ctx, cancel := context.WithTimeout(prev, t.d)
	defer cancel()

	inv.SetContext(ctx)
	err := inv.Proceed()
	inv.SetContext(prev)
	return err
}
