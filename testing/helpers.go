// Package testing provides interceptors and fixtures for testing code built
// on aspect proxies.
package testing

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/aspect"
)

// TestKey returns a valid 32-byte AES key for testing.
func TestKey() []byte {
	return []byte("32-byte-key-for-aes-256-encrypt!")
}

// Trace records events from interceptors in arrival order.
// It is safe for concurrent use.
type Trace struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event.
func (t *Trace) Add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events.
func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.events)
}

// Reset clears the trace.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// Marker returns an interceptor that records "name:before" and
// "name:after" around Proceed.
func Marker(t *Trace, name string) aspect.Interceptor {
	return aspect.InterceptorFunc(func(inv *aspect.Invocation) error {
		t.Add("%s:before", name)
		err := inv.Proceed()
		t.Add("%s:after", name)
		return err
	})
}

// Returning returns an interceptor that sets v as the return value and
// never proceeds.
func Returning(v any) aspect.Interceptor {
	return aspect.InterceptorFunc(func(inv *aspect.Invocation) error {
		inv.SetReturnValue(v)
		return nil
	})
}

// Failing returns an interceptor that fails with err without proceeding.
func Failing(err error) aspect.Interceptor {
	return aspect.InterceptorFunc(func(*aspect.Invocation) error {
		return err
	})
}

// Repeating returns an interceptor that proceeds n times.
func Repeating(n int) aspect.Interceptor {
	return aspect.InterceptorFunc(func(inv *aspect.Invocation) error {
		for i := 0; i < n; i++ {
			if err := inv.Proceed(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Capturing is an interceptor that requires argument capture and runs
// Before and After around Proceed.
type Capturing struct {
	Before func(inv *aspect.Invocation) error
	After  func(inv *aspect.Invocation, err error) error
}

// CapturesArguments implements aspect.ArgumentCapturer.
func (c Capturing) CapturesArguments() bool { return true }

// Intercept implements aspect.Interceptor.
func (c Capturing) Intercept(inv *aspect.Invocation) error {
	if c.Before != nil {
		if err := c.Before(inv); err != nil {
			return err
		}
	}
	err := inv.Proceed()
	if c.After != nil {
		return c.After(inv, err)
	}
	return err
}

// Counter counts the invocations it sees and proceeds.
type Counter struct {
	n atomic.Int64
}

// Intercept implements aspect.Interceptor.
func (c *Counter) Intercept(inv *aspect.Invocation) error {
	c.n.Add(1)
	return inv.Proceed()
}

// Count returns the number of invocations seen.
func (c *Counter) Count() int64 {
	return c.n.Load()
}

// Observed is a snapshot of an invocation taken by an Observer.
type Observed struct {
	Member    string
	Captured  bool
	Arguments []any
	Result    any
	Err       error
}

// Observer records a snapshot of every invocation after it proceeds.
type Observer struct {
	mu   sync.Mutex
	seen []Observed
}

// Intercept implements aspect.Interceptor.
func (o *Observer) Intercept(inv *aspect.Invocation) error {
	err := inv.Proceed()
	o.mu.Lock()
	o.seen = append(o.seen, Observed{
		Member:    inv.Method().Name,
		Captured:  inv.Captured(),
		Arguments: slices.Clone(inv.Arguments()),
		Result:    inv.ReturnValue(),
		Err:       err,
	})
	o.mu.Unlock()
	return err
}

// Seen returns the recorded snapshots.
func (o *Observer) Seen() []Observed {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.seen)
}

// Last returns the most recent snapshot.
func (o *Observer) Last() (Observed, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.seen) == 0 {
		return Observed{}, false
	}
	return o.seen[len(o.seen)-1], true
}
