package aspect

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Invocation is the state of one call through a proxy.
// An invocation belongs to the call that created it; it is not safe for
// concurrent use by multiple goroutines.
type Invocation struct {
	ctx     context.Context
	target  any
	member  *Member
	capture bool
	args    []any
	ret     any
	props   map[string]any
	id      uuid.UUID
	next    func(*Invocation) error
	record  Record
}

// Target returns the implementation the proxy forwards to.
func (inv *Invocation) Target() any {
	return inv.target
}

// Method returns the member being invoked.
func (inv *Invocation) Method() *Member {
	return inv.member
}

// Context returns the invocation context.
func (inv *Invocation) Context() context.Context {
	return inv.ctx
}

// SetContext replaces the context the real member receives.
func (inv *Invocation) SetContext(ctx context.Context) {
	inv.ctx = ctx
	if inv.args != nil && inv.member.Context >= 0 {
		inv.args[inv.member.Context] = ctx
	}
}

// ID returns a unique identifier for the invocation, generated on first use.
func (inv *Invocation) ID() uuid.UUID {
	if inv.id == uuid.Nil {
		inv.id = uuid.New()
	}
	return inv.id
}

// Captured reports whether the arguments were captured.
func (inv *Invocation) Captured() bool {
	return inv.capture
}

// Arguments returns the captured argument slots, or nil when arguments
// were not captured. Slots of ByRef and Out parameters hold the pointee.
// Writes to the slice are seen by the real member.
func (inv *Invocation) Arguments() []any {
	return inv.args
}

// Capture fills the argument slots. It is called by generated code and
// requires one value per parameter.
func (inv *Invocation) Capture(values ...any) {
	if len(values) != len(inv.member.Params) {
		panic(fmt.Sprintf("aspect: %s captured %d of %d arguments", inv.member, len(values), len(inv.member.Params)))
	}
	if values == nil {
		values = []any{}
	}
	inv.args = values
}

// Arg returns the captured argument at i.
func (inv *Invocation) Arg(i int) (any, error) {
	if inv.args == nil {
		return nil, ErrNotCaptured
	}
	if i < 0 || i >= len(inv.args) {
		return nil, fmt.Errorf("%w: %d", ErrArgumentIndex, i)
	}
	return inv.args[i], nil
}

// SetArg replaces the captured argument at i.
// The value must be assignable to the parameter's slot type.
func (inv *Invocation) SetArg(i int, v any) error {
	if inv.args == nil {
		return ErrNotCaptured
	}
	if i < 0 || i >= len(inv.args) {
		return fmt.Errorf("%w: %d", ErrArgumentIndex, i)
	}
	slot := inv.member.Params[i].Slot()
	if v != nil && !reflect.TypeOf(v).AssignableTo(slot) {
		return fmt.Errorf("%w: %T is not %s", ErrArgumentType, v, slot)
	}
	inv.args[i] = v
	if i == inv.member.Context {
		if ctx, ok := v.(context.Context); ok {
			inv.ctx = ctx
		}
	}
	return nil
}

// ReturnValue returns the value the caller will receive.
func (inv *Invocation) ReturnValue() any {
	return inv.ret
}

// SetReturnValue replaces the value the caller will receive.
// For deferred members this is the completion value, not the future.
func (inv *Invocation) SetReturnValue(v any) {
	inv.ret = v
}

// Set stores a property shared by every interceptor of this invocation.
func (inv *Invocation) Set(key string, v any) {
	if inv.props == nil {
		inv.props = make(map[string]any)
	}
	inv.props[key] = v
}

// Get returns a property set earlier in the chain.
func (inv *Invocation) Get(key string) (any, bool) {
	v, ok := inv.props[key]
	return v, ok
}

// Properties returns the property bag, creating it if needed.
func (inv *Invocation) Properties() map[string]any {
	if inv.props == nil {
		inv.props = make(map[string]any)
	}
	return inv.props
}

// Proceed runs the rest of the chain and finally the real member.
// Proceeding outside an interceptor's Intercept returns ErrInvocationSettled.
func (inv *Invocation) Proceed() error {
	if inv.next == nil {
		return fmt.Errorf("%w: %s", ErrInvocationSettled, inv.member)
	}
	return inv.next(inv)
}

// Arg returns captured argument i as T. Nil slots yield the zero value.
// It panics when arguments were not captured.
func Arg[T any](inv *Invocation, i int) T {
	if inv.args == nil {
		panic(fmt.Sprintf("aspect: %s: %v", inv.member, ErrNotCaptured))
	}
	return as[T](inv.args[i])
}

// Result returns the invocation's return value as T.
func Result[T any](inv *Invocation) T {
	return as[T](inv.ret)
}

// Property returns a typed property.
func Property[T any](inv *Invocation, key string) (T, bool) {
	v, ok := inv.props[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
