package interceptors

import (
	"errors"
	"fmt"

	"github.com/zoobzio/aspect"
)

// ErrDenied is returned when a Guard rejects a call.
var ErrDenied = errors.New("access denied")

// Guard runs a check before the rest of the chain and rejects the call
// when the check fails. Rejections wrap ErrDenied and the check's error.
type Guard struct {
	check func(inv *aspect.Invocation) error
	args  bool
}

// NewGuard returns a Guard running check.
func NewGuard(check func(inv *aspect.Invocation) error) *Guard {
	return &Guard{check: check}
}

// WithArguments captures arguments so check can read them.
func (g *Guard) WithArguments() *Guard {
	g.args = true
	return g
}

// CapturesArguments implements aspect.ArgumentCapturer.
func (g *Guard) CapturesArguments() bool { return g.args }

// Intercept implements aspect.Interceptor.
func (g *Guard) Intercept(inv *aspect.Invocation) error {
	if err := g.check(inv); err != nil {
		if errors.Is(err, ErrDenied) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrDenied, inv.Method(), err)
	}
	return inv.Proceed()
}

// RequireContextValue returns a check that passes when the invocation
// context carries a non-nil value for key.
func RequireContextValue(key any) func(inv *aspect.Invocation) error {
	return func(inv *aspect.Invocation) error {
		if inv.Context().Value(key) == nil {
			return fmt.Errorf("%w: missing %v", ErrDenied, key)
		}
		return nil
	}
}
