package aspect

import (
	"context"
	"reflect"
	"runtime/debug"
	"sync"
)

// Future is the eventual result of an asynchronous member.
// A Future completes exactly once; every Await observes the same outcome.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Task is a Future that carries no value.
type Task = Future[struct{}]

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// NewFuture returns a pending future and the function that completes it.
// Calls after the first are ignored.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	var once sync.Once
	return f, func(v T, err error) {
		once.Do(func() {
			f.val, f.err = v, err
			close(f.done)
		})
	}
}

// Go runs fn on a new goroutine and returns its future.
// A panic in fn completes the future with a *PanicError.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f, complete := NewFuture[T]()
	go func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				complete(zero, &PanicError{Value: r, Stack: debug.Stack()})
				return
			}
			complete(v, err)
		}()
		v, err = fn(ctx)
	}()
	return f
}

// GoTask runs fn on a new goroutine and returns its task.
func GoTask(ctx context.Context, fn func(context.Context) error) *Task {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	return &Future[T]{done: closedDone, val: v}
}

// Rejected returns a future already completed with err.
func Rejected[T any](err error) *Future[T] {
	return &Future[T]{done: closedDone, err: err}
}

// Completed returns a finished task.
func Completed() *Task {
	return Resolved(struct{}{})
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if f == nil {
		return zero, ErrNilFuture
	}
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	if ctx == nil {
		<-f.done
		return f.val, f.err
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done returns a channel closed on completion.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsCompleted reports whether the future has finished.
func (f *Future[T]) IsCompleted() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[T]) awaitAny(ctx context.Context) (any, error) {
	v, err := f.Await(ctx)
	return v, err
}

func (*Future[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (*Future[T]) lightweight() bool { return false }

func (*Future[T]) spawn(ctx context.Context, fn func(context.Context) (any, error)) reflect.Value {
	return reflect.ValueOf(Go(ctx, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		return as[T](v), err
	}))
}

// ValueFuture is a completion that avoids allocation when the result is
// already known. The zero ValueFuture is completed with the zero value.
type ValueFuture[T any] struct {
	fut *Future[T]
	val T
	err error
}

// ValueTask is a ValueFuture that carries no value.
type ValueTask = ValueFuture[struct{}]

// ValueOf returns a completed ValueFuture holding v.
func ValueOf[T any](v T) ValueFuture[T] {
	return ValueFuture[T]{val: v}
}

// ValueError returns a completed ValueFuture holding err.
func ValueError[T any](err error) ValueFuture[T] {
	return ValueFuture[T]{err: err}
}

// ValueFrom adapts a Future.
func ValueFrom[T any](f *Future[T]) ValueFuture[T] {
	if f == nil {
		return ValueFuture[T]{err: ErrNilFuture}
	}
	return ValueFuture[T]{fut: f}
}

// IsCompleted reports whether the result is available without blocking.
func (v ValueFuture[T]) IsCompleted() bool {
	return v.fut == nil || v.fut.IsCompleted()
}

// Await returns the result, blocking only if it is still pending.
func (v ValueFuture[T]) Await(ctx context.Context) (T, error) {
	if v.fut == nil {
		return v.val, v.err
	}
	return v.fut.Await(ctx)
}

// Future returns an equivalent Future.
func (v ValueFuture[T]) Future() *Future[T] {
	switch {
	case v.fut != nil:
		return v.fut
	case v.err != nil:
		return Rejected[T](v.err)
	}
	return Resolved(v.val)
}

func (v ValueFuture[T]) awaitAny(ctx context.Context) (any, error) {
	r, err := v.Await(ctx)
	return r, err
}

func (ValueFuture[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (ValueFuture[T]) lightweight() bool { return true }

func (ValueFuture[T]) spawn(ctx context.Context, fn func(context.Context) (any, error)) reflect.Value {
	return reflect.ValueOf(ValueFrom(Go(ctx, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		return as[T](v), err
	})))
}

// completion is implemented by the deferred result types.
// Its methods work on zero receivers so analysis can classify a type
// from reflect.Zero alone.
type completion interface {
	awaitAny(ctx context.Context) (any, error)
	valueType() reflect.Type
	lightweight() bool
	spawn(ctx context.Context, fn func(context.Context) (any, error)) reflect.Value
}

// completionOf returns the completion behavior of t, if any.
func completionOf(t reflect.Type) (completion, bool) {
	if t == nil || t.Kind() == reflect.Interface || !t.Implements(completionType) {
		return nil, false
	}
	c, ok := reflect.Zero(t).Interface().(completion)
	return c, ok
}

// as converts a slot value to T, treating nil as the zero value.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
