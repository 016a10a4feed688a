package aspect

import (
	"context"
	"fmt"
)

// Proxy is the runtime state behind one generated proxy instance.
type Proxy struct {
	table   *MemberTable
	target  any
	handles map[string]*Handle
}

// Handle returns the handle of a member. Generated constructors call it
// once per member; an unknown name means the wrapper is stale and panics.
func (p *Proxy) Handle(name string) *Handle {
	h, ok := p.handles[name]
	if !ok {
		panic(fmt.Sprintf("aspect: %s has no member %s", typeName(p.table.Contract), name))
	}
	return h
}

// Target returns the implementation instance.
func (p *Proxy) Target() any {
	return p.target
}

// Table returns the analyzed member table.
func (p *Proxy) Table() *MemberTable {
	return p.table
}

// Intercepted returns the number of members with a chain.
func (p *Proxy) Intercepted() int {
	n := 0
	for _, h := range p.handles {
		if h.chain != nil {
			n++
		}
	}
	return n
}

// Handle binds one member of one proxy instance to its chain.
// A handle without a chain forwards directly.
type Handle struct {
	member  *Member
	target  any
	chain   *Chain
	capture bool
}

// Member returns the analyzed member.
func (h *Handle) Member() *Member {
	return h.member
}

// Intercepted reports whether the member runs through a chain.
func (h *Handle) Intercepted() bool {
	return h.chain != nil
}

// Chain returns the member's chain, or nil.
func (h *Handle) Chain() *Chain {
	return h.chain
}

// Begin creates the invocation for one call.
func (h *Handle) Begin(ctx context.Context) *Invocation {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Invocation{
		ctx:     ctx,
		target:  h.target,
		member:  h.member,
		capture: h.capture,
	}
}

// Run executes the chain for inv with rec as the real call.
func (h *Handle) Run(inv *Invocation, rec Record) error {
	return h.chain.Invoke(inv, rec)
}

// MustRun executes the chain for a member that has no error result.
// A chain error cannot be returned, so it is raised as a panic carrying
// the original error value.
func (h *Handle) MustRun(inv *Invocation, rec Record) {
	if err := h.Run(inv, rec); err != nil {
		panic(err)
	}
}

// Async runs the chain of a *Future[T] member on a new goroutine.
// The returned future completes with the invocation's final return value,
// or with the chain's error.
func Async[T any](h *Handle, inv *Invocation, rec Record) *Future[T] {
	return Go(inv.Context(), func(context.Context) (T, error) {
		if err := h.Run(inv, rec); err != nil {
			var zero T
			return zero, err
		}
		return Result[T](inv), nil
	})
}

// AsyncValue is Async for ValueFuture[T] members.
func AsyncValue[T any](h *Handle, inv *Invocation, rec Record) ValueFuture[T] {
	return ValueFrom(Async[T](h, inv, rec))
}

// Await waits for the completion returned by the real member and records
// its value on inv. The completion's error is returned as is. The wait is
// not bounded by the invocation's context; the member decides how it
// reacts to cancellation.
func Await[T any](inv *Invocation, f *Future[T]) error {
	v, err := f.Await(nil)
	if err != nil {
		return err
	}
	if inv.member.Kind.HasValue() {
		inv.SetReturnValue(v)
	}
	return nil
}

// AwaitValue is Await for ValueFuture[T] members.
func AwaitValue[T any](inv *Invocation, f ValueFuture[T]) error {
	v, err := f.Await(nil)
	if err != nil {
		return err
	}
	if inv.member.Kind.HasValue() {
		inv.SetReturnValue(v)
	}
	return nil
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Assign stores v through p unless p is nil.
func Assign[T any](p *T, v T) {
	if p != nil {
		*p = v
	}
}
