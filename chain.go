package aspect

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// AllMembers binds an interceptor to every member of a contract.
const AllMembers = "*"

// Binding attaches an interceptor to a contract member.
type Binding struct {
	Member  string // Member name or AllMembers
	Order   int    // Lower runs outermost
	Factory func(Resolver) (Interceptor, error)
	Capture bool // Force argument capture for the member
}

// NewBinding creates a Binding from an Interceptor, a func(*Invocation) error
// or a func(Resolver) (Interceptor, error) factory.
func NewBinding(member string, order int, v any) (Binding, error) {
	b := Binding{Member: member, Order: order}
	switch x := v.(type) {
	case Interceptor:
		b.Factory = func(Resolver) (Interceptor, error) { return x, nil }
	case func(*Invocation) error:
		ic := InterceptorFunc(x)
		b.Factory = func(Resolver) (Interceptor, error) { return ic, nil }
	case func(Resolver) (Interceptor, error):
		b.Factory = x
	default:
		return Binding{}, &ConfigError{
			Err:    ErrInvalidInterceptor,
			Member: member,
			Detail: fmt.Sprintf("%T has no Intercept(*Invocation) error method", v),
		}
	}
	return b, nil
}

// applies reports whether b targets member.
func (b Binding) applies(member string) bool {
	return b.Member == member || b.Member == AllMembers
}

// Chain is the composed interceptor pipeline of one member.
type Chain struct {
	member   *Member
	run      func(*Invocation) error
	captures bool
	size     int
}

// Compose builds the chain for m from the bindings that target it.
// Bindings are ordered by Order, ties keeping their given order, and
// composed so the first runs outermost and the last wraps the real member.
func Compose(m *Member, bindings []Binding, r Resolver) (*Chain, error) {
	start := time.Now()
	ordered := orderBindings(m.Name, bindings)

	interceptors := make([]Interceptor, 0, len(ordered))
	captures := false
	for _, b := range ordered {
		if b.Factory == nil {
			return nil, newConfigError(ErrInvalidInterceptor, m.Contract, m.Name, "binding has no factory")
		}
		ic, err := b.Factory(r)
		if err != nil {
			return nil, &ConfigError{Err: err, Contract: typeName(m.Contract), Member: m.Name, Detail: "interceptor construction failed"}
		}
		if ic == nil || isNilInterceptor(ic) {
			return nil, newConfigError(ErrInvalidInterceptor, m.Contract, m.Name, "factory returned nil")
		}
		if b.Capture || capturesArguments(ic) {
			captures = true
		}
		interceptors = append(interceptors, ic)
	}

	next := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		next = link(interceptors[i], next)
	}

	emitChainComposed(context.Background(), m, len(interceptors), captures, time.Since(start))

	return &Chain{member: m, run: next, captures: captures, size: len(interceptors)}, nil
}

// Len returns the number of interceptors.
func (c *Chain) Len() int {
	return c.size
}

// Captures reports whether any interceptor requires argument capture.
func (c *Chain) Captures() bool {
	return c.captures
}

// Invoke runs the chain for inv and rec.
func (c *Chain) Invoke(inv *Invocation, rec Record) error {
	inv.record = rec
	return c.run(inv)
}

// orderBindings filters bindings to member and sorts them stably by Order.
func orderBindings(member string, bindings []Binding) []Binding {
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if b.applies(member) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b Binding) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// terminal invokes the real member through the invocation's record.
func terminal(inv *Invocation) error {
	return inv.record.Invoke(inv)
}

// link makes rest the target of Proceed while ic runs. The previous target
// is restored afterwards so an outer interceptor can proceed again.
func link(ic Interceptor, rest func(*Invocation) error) func(*Invocation) error {
	return func(inv *Invocation) error {
		saved := inv.next
		inv.next = rest
		err := ic.Intercept(inv)
		inv.next = saved
		return err
	}
}

func capturesArguments(ic Interceptor) bool {
	c, ok := ic.(ArgumentCapturer)
	return ok && c.CapturesArguments()
}

func isNilInterceptor(ic Interceptor) bool {
	v := reflect.ValueOf(ic)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
