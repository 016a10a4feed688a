package interceptors

import (
	"runtime/debug"

	"github.com/zoobzio/aspect"
)

// Recover turns a panic in the rest of the chain into an
// *aspect.PanicError carrying the panic value and stack.
type Recover struct{}

// NewRecover returns a Recover interceptor.
func NewRecover() *Recover {
	return &Recover{}
}

// Intercept implements aspect.Interceptor.
func (*Recover) Intercept(inv *aspect.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &aspect.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return inv.Proceed()
}
