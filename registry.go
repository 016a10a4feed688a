package aspect

import (
	"context"
	"reflect"
	"sync"
)

// registryKey identifies one synthesized proxy type.
type registryKey struct {
	contract reflect.Type
	impl     reflect.Type
	dynamic  bool
}

var (
	registry   = make(map[registryKey]any)
	registryMu sync.RWMutex

	wrappers   = make(map[reflect.Type]any)
	wrappersMu sync.RWMutex
)

// Register makes a generated wrapper available to Use.
// Generated code calls it from init for every non-generic contract.
func Register[C any](w Wrapper[C]) {
	wrappersMu.Lock()
	defer wrappersMu.Unlock()
	wrappers[reflect.TypeFor[C]()] = w
}

// Lookup returns the wrapper registered for C.
func Lookup[C any]() (Wrapper[C], bool) {
	wrappersMu.RLock()
	defer wrappersMu.RUnlock()
	w, ok := wrappers[reflect.TypeFor[C]()]
	if !ok {
		return Wrapper[C]{}, false
	}
	return w.(Wrapper[C]), true
}

// Use returns the cached factory for contract C over implementation I,
// synthesizing it from the registered wrapper on first use.
func Use[C, I any](opts ...Option) (*Factory[C], error) {
	w, ok := Lookup[C]()
	if !ok {
		if f, hit := cachedFactory[C](reflect.TypeFor[I]()); hit {
			return f, nil
		}
		return nil, newConfigError(ErrNoWrapper, reflect.TypeFor[C](), "", "run aspectgen for the contract")
	}
	return Synthesize[C, I](w, opts...)
}

// Synthesize returns the cached factory for contract C over implementation
// I, analyzing and building it with w at most once per pair. Options only
// apply to the synthesis that populates the cache.
func Synthesize[C, I any](w Wrapper[C], opts ...Option) (*Factory[C], error) {
	impl := reflect.TypeFor[I]()
	key := registryKey{contract: reflect.TypeFor[C](), impl: impl}

	// Fast path: read-lock cache check
	if f, hit := cachedFactory[C](impl); hit {
		return f, nil
	}

	// Slow path: build and cache with write-lock
	registryMu.Lock()
	defer registryMu.Unlock()

	// Double-check pattern
	if cached, ok := registry[key]; ok {
		return cached.(*Factory[C]), nil
	}

	factory, err := newFactory(impl, w, opts)
	if err != nil {
		return nil, err
	}
	inspectImplementation[I]()

	registry[key] = factory
	return factory, nil
}

func cachedFactory[C any](impl reflect.Type) (*Factory[C], bool) {
	contract := reflect.TypeFor[C]()
	registryMu.RLock()
	cached, ok := registry[registryKey{contract: contract, impl: impl}]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	emitFactoryCached(context.Background(), typeName(contract), typeName(impl))
	return cached.(*Factory[C]), true
}

// Dispatch returns the cached reflective dispatcher for contract over impl.
func Dispatch(contract, impl reflect.Type, opts ...Option) (*Dispatcher, error) {
	key := registryKey{contract: contract, impl: impl, dynamic: true}

	// Fast path: read-lock cache check
	registryMu.RLock()
	if cached, ok := registry[key]; ok {
		registryMu.RUnlock()
		emitFactoryCached(context.Background(), typeName(contract), typeName(impl))
		return cached.(*Dispatcher), nil
	}
	registryMu.RUnlock()

	registryMu.Lock()
	defer registryMu.Unlock()

	// Double-check pattern
	if cached, ok := registry[key]; ok {
		return cached.(*Dispatcher), nil
	}

	d, err := NewDispatcher(contract, impl, opts...)
	if err != nil {
		return nil, err
	}

	registry[key] = d
	return d, nil
}

// Reset clears the factory cache. Registered wrappers are kept.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[registryKey]any)
}
