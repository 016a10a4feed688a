package aspect

import (
	"fmt"
	"reflect"
	"sync"
)

// Resolver supplies instances by type. It builds implementations, their
// injected dependencies and interceptors that need collaborators.
// Resolvers return an error wrapping ErrUnresolvable for unknown types.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(t reflect.Type) (any, error)

// Resolve calls f(t).
func (f ResolverFunc) Resolve(t reflect.Type) (any, error) {
	return f(t)
}

// Resolve resolves T from r.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	if r == nil {
		return zero, fmt.Errorf("%w: %s (no resolver)", ErrUnresolvable, t)
	}
	v, err := r.Resolve(t)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: resolver returned %T for %s", ErrUnresolvable, v, t)
	}
	return out, nil
}

// Container is a minimal constructor registry.
type Container struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]func(Resolver) (any, error)
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{ctors: make(map[reflect.Type]func(Resolver) (any, error))}
}

// Provide registers a constructor for t. The constructor runs on every resolve.
func (c *Container) Provide(t reflect.Type, ctor func(Resolver) (any, error)) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctors[t] = ctor
	return c
}

// Resolve implements Resolver.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	c.mu.RLock()
	ctor, ok := c.ctors[t]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvable, t)
	}
	return ctor(c)
}

// Provide registers a typed constructor for T.
func Provide[T any](c *Container, ctor func(Resolver) (T, error)) *Container {
	return c.Provide(reflect.TypeFor[T](), func(r Resolver) (any, error) {
		return ctor(r)
	})
}

// Instance registers a fixed value for T.
func Instance[T any](c *Container, v T) *Container {
	return c.Provide(reflect.TypeFor[T](), func(Resolver) (any, error) {
		return v, nil
	})
}
