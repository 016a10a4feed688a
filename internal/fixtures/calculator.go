// Package fixtures holds contracts and implementations used by tests and
// benchmarks across the module.
package fixtures

//go:generate go run github.com/zoobzio/aspect/cmd/aspectgen -type Calculator,Repository,Directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/aspect"
)

// ErrDivideByZero is returned by Divide.
var ErrDivideByZero = errors.New("divide by zero")

// Calculator covers every member shape a proxy supports.
type Calculator interface {
	Add(a, b int) int
	Divide(ctx context.Context, a, b int) (int, error)

	// Exchange multiplies x by ten and reports the product through y.
	//
	//aspect:ref x
	//aspect:out y
	Exchange(x, y *int)

	Reset()
	Fail(reason string) error
	Sum(ctx context.Context, values ...int) *aspect.Future[int]
	Flush(ctx context.Context) *aspect.Task
	Peek() aspect.ValueFuture[int]
	Ping() aspect.ValueTask
}

// FailureError is returned by Fail.
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string {
	return "failure: " + e.Reason
}

// BasicCalculator implements Calculator and counts the calls it receives.
type BasicCalculator struct {
	Calls   atomic.Int64
	Resets  atomic.Int64
	Flushes atomic.Int64

	mu   sync.Mutex
	last int
}

// NewCalculator returns a BasicCalculator.
func NewCalculator() *BasicCalculator {
	return &BasicCalculator{}
}

func (c *BasicCalculator) Add(a, b int) int {
	c.Calls.Add(1)
	c.remember(a + b)
	return a + b
}

func (c *BasicCalculator) Divide(_ context.Context, a, b int) (int, error) {
	c.Calls.Add(1)
	if b == 0 {
		return 0, ErrDivideByZero
	}
	c.remember(a / b)
	return a / b, nil
}

func (c *BasicCalculator) Exchange(x, y *int) {
	c.Calls.Add(1)
	*y = *x * 10
	*x = *y
}

func (c *BasicCalculator) Reset() {
	c.Calls.Add(1)
	c.Resets.Add(1)
	c.remember(0)
}

func (c *BasicCalculator) Fail(reason string) error {
	c.Calls.Add(1)
	if reason == "" {
		return nil
	}
	return &FailureError{Reason: reason}
}

func (c *BasicCalculator) Sum(ctx context.Context, values ...int) *aspect.Future[int] {
	c.Calls.Add(1)
	return aspect.Go(ctx, func(ctx context.Context) (int, error) {
		total := 0
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			total += v
		}
		c.remember(total)
		return total, nil
	})
}

func (c *BasicCalculator) Flush(ctx context.Context) *aspect.Task {
	c.Calls.Add(1)
	return aspect.GoTask(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Flushes.Add(1)
		return nil
	})
}

func (c *BasicCalculator) Peek() aspect.ValueFuture[int] {
	c.Calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return aspect.ValueOf(c.last)
}

func (c *BasicCalculator) Ping() aspect.ValueTask {
	c.Calls.Add(1)
	return aspect.ValueTask{}
}

func (c *BasicCalculator) remember(v int) {
	c.mu.Lock()
	c.last = v
	c.mu.Unlock()
}
