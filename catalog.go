package aspect

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// Catalog is an InterceptorProvider backed by explicit bindings.
// A member is intercepted when at least one binding targets it.
type Catalog struct {
	mu       sync.RWMutex
	bindings map[reflect.Type][]Binding
	gen      atomic.Uint64
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bindings: make(map[reflect.Type][]Binding)}
}

// Add appends bindings for contract.
func (c *Catalog) Add(contract reflect.Type, bindings ...Binding) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[contract] = append(c.bindings[contract], bindings...)
	c.gen.Add(1)
	return c
}

// Remove drops every binding of contract for member.
func (c *Catalog) Remove(contract reflect.Type, member string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[contract] = slices.DeleteFunc(c.bindings[contract], func(b Binding) bool {
		return b.Member == member
	})
	c.gen.Add(1)
}

// WillIntercept implements InterceptorProvider.
func (c *Catalog) WillIntercept(m *Member) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.bindings[m.Contract] {
		if b.applies(m.Name) {
			return true
		}
	}
	return false
}

// Bindings implements InterceptorProvider.
func (c *Catalog) Bindings(contract reflect.Type) []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.bindings[contract])
}

// Generation implements Versioned.
func (c *Catalog) Generation() uint64 {
	return c.gen.Load()
}

// Intercept binds v to member of contract C. See NewBinding for the
// accepted forms of v.
func Intercept[C any](c *Catalog, member string, order int, v any) error {
	b, err := NewBinding(member, order, v)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Contract = typeName(reflect.TypeFor[C]())
		}
		return err
	}
	c.Add(reflect.TypeFor[C](), b)
	return nil
}

// InterceptCapturing is Intercept with argument capture forced on.
func InterceptCapturing[C any](c *Catalog, member string, order int, v any) error {
	b, err := NewBinding(member, order, v)
	if err != nil {
		return err
	}
	b.Capture = true
	c.Add(reflect.TypeFor[C](), b)
	return nil
}

// Provider adapts functions to InterceptorProvider.
type Provider struct {
	Intercepts func(m *Member) bool
	For        func(contract reflect.Type) []Binding
}

// WillIntercept implements InterceptorProvider.
func (p Provider) WillIntercept(m *Member) bool {
	if p.Intercepts == nil {
		return false
	}
	return p.Intercepts(m)
}

// Bindings implements InterceptorProvider.
func (p Provider) Bindings(contract reflect.Type) []Binding {
	if p.For == nil {
		return nil
	}
	return p.For(contract)
}
