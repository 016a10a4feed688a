// Package aspect synthesizes intercepting proxies for interface contracts.
//
// A proxy implements a contract by forwarding each member to a target
// implementation, running an ordered chain of interceptors around members
// that an InterceptorProvider selects. Members nobody intercepts forward
// directly with no allocation.
//
// # Synthesis
//
// Go cannot create method sets at runtime, so proxy types are produced by
// the aspectgen command. For every contract it emits a Wrapper value that
// describes the contract's source shape and constructs the proxy type:
//
//	//go:generate go run github.com/zoobzio/aspect/cmd/aspectgen -type Store
//
//	factory, err := aspect.Use[Store, *pgStore]()
//	store, err := factory.New(resolver, catalog)
//
// Use finds the wrapper registered by the generated code, analyzes the
// contract against the implementation and caches the resulting Factory per
// (contract, implementation) pair. Generic contracts get a generic wrapper
// constructor instead of a registration:
//
//	factory, err := aspect.Synthesize[Repository[User], *memRepo[User]](RepositoryWrapper[User]())
//
// Where no generated code is available, a Dispatcher builds the same
// interception runtime over reflection and exposes it as DynamicProxy.Call.
//
// # Interceptors
//
// An interceptor receives an *Invocation and decides whether and how often
// to Proceed:
//
//	catalog := aspect.NewCatalog()
//	aspect.Intercept[Store](catalog, "Get", 10, func(inv *aspect.Invocation) error {
//	    start := time.Now()
//	    err := inv.Proceed()
//	    slog.Info("store.get", "took", time.Since(start))
//	    return err
//	})
//
// Lower orders run outermost. Equal orders keep registration order.
//
// # Argument Capture
//
// Arguments are boxed into the invocation only when an interceptor on the
// member asks for them, through ArgumentCapturer, Binding.Capture or the
// CaptureAlways policy. Without capture, Arguments returns nil and the real
// member receives the caller's original arguments.
//
// # Return Kinds
//
// Members may return nothing, one value, a *Task, a *Future[T], a ValueTask
// or a ValueFuture[T]. A trailing error is allowed on synchronous members.
// Deferred members run their chain on a goroutine and hand the caller a
// completion immediately; the interceptors observe the awaited result.
//
// # Signals
//
// Synthesis lifecycle is reported through capitan signals (SignalFactorySynthesized,
// SignalProxyCreated, SignalChainComposed, ...). Nothing is emitted on the call path.
package aspect

import (
	"reflect"
)

// Interceptor wraps the invocation of a proxied member.
// Call inv.Proceed to continue the chain; skipping it short-circuits the
// real member, calling it more than once re-runs the remainder.
type Interceptor interface {
	Intercept(inv *Invocation) error
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(inv *Invocation) error

// Intercept calls f(inv).
func (f InterceptorFunc) Intercept(inv *Invocation) error {
	return f(inv)
}

// ArgumentCapturer is implemented by interceptors that read or modify arguments.
type ArgumentCapturer interface {
	CapturesArguments() bool
}

// Record performs the real call for one invocation. Generated code supplies
// one record type per member; it reads captured arguments when present and
// stores the result on the invocation.
type Record interface {
	Invoke(inv *Invocation) error
}

// InterceptorProvider decides which members are intercepted and by what.
type InterceptorProvider interface {
	// WillIntercept reports whether m gets a chain. Members it rejects
	// forward directly.
	WillIntercept(m *Member) bool

	// Bindings returns every binding declared for the contract.
	Bindings(contract reflect.Type) []Binding
}

// Versioned providers report a generation that changes whenever their
// bindings do. Factories reuse ordered binding plans until it moves.
type Versioned interface {
	Generation() uint64
}
