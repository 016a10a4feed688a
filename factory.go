package aspect

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// CapturePolicy selects when arguments are captured.
type CapturePolicy uint8

const (
	// CaptureAuto captures only for members whose chain asks for it.
	CaptureAuto CapturePolicy = iota

	// CaptureAlways captures on every intercepted member.
	CaptureAlways
)

// Option configures synthesis.
type Option func(*config)

type config struct {
	capture CapturePolicy
	passing passingOverrides
}

// WithCapture sets the capture policy.
func WithCapture(p CapturePolicy) Option {
	return func(c *config) {
		c.capture = p
	}
}

// WithPassing declares the passing mode of a pointer parameter, for
// contracts analyzed without generated directives.
func WithPassing(member string, param int, mode Passing) Option {
	return func(c *config) {
		if c.passing == nil {
			c.passing = make(passingOverrides)
		}
		if c.passing[member] == nil {
			c.passing[member] = make(map[int]Passing)
		}
		c.passing[member][param] = mode
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Factory creates proxies of contract C over one implementation type.
// Factories are safe for concurrent use and are cached; see Synthesize.
type Factory[C any] struct {
	synthesis
	build func(C, *Proxy) C
}

// Table returns the analyzed member table.
func (f *Factory[C]) Table() *MemberTable {
	return f.table
}

// New constructs an implementation through r and returns a proxy over it.
// Members p intercepts get a chain; the rest forward directly. A nil
// provider yields a pure forwarding proxy.
func (f *Factory[C]) New(r Resolver, p InterceptorProvider) (C, error) {
	var zero C
	target, err := construct(f.table.Impl, r)
	if err != nil {
		return zero, err
	}
	c, ok := target.(C)
	if !ok {
		return zero, newConfigError(ErrUnresolvable, f.table.Contract, "",
			fmt.Sprintf("constructed %T does not implement the contract", target))
	}
	return f.Wrap(c, r, p)
}

// Wrap returns a proxy over an existing target.
func (f *Factory[C]) Wrap(target C, r Resolver, p InterceptorProvider) (C, error) {
	var zero C
	if any(target) == nil {
		return zero, newConfigError(ErrUnresolvable, f.table.Contract, "", "nil target")
	}
	px, err := f.proxy(context.Background(), target, r, p)
	if err != nil {
		return zero, err
	}
	return f.build(target, px), nil
}

func newFactory[C any](impl reflect.Type, w Wrapper[C], opts []Option) (*Factory[C], error) {
	contract := reflect.TypeFor[C]()
	start := time.Now()

	if w.New == nil {
		err := newConfigError(ErrNoWrapper, contract, "", "wrapper has no constructor")
		emitFactorySynthesized(context.Background(), nil, typeName(contract), typeName(impl), time.Since(start), err)
		return nil, err
	}

	cfg := newConfig(opts)
	table, err := analyze(contract, impl, &w.Shape, cfg.passing)
	emitFactorySynthesized(context.Background(), table, typeName(contract), typeName(impl), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &Factory[C]{
		synthesis: newSynthesis(table, cfg),
		build:     w.New,
	}, nil
}

// synthesis is the proxy construction state shared by factories and
// dispatchers.
type synthesis struct {
	table *MemberTable
	cfg   config

	// Ordered bindings per versioned provider, least recently used evicted
	plans *lru.Cache
}

// maxPlans bounds how many providers a factory keeps plans for.
const maxPlans = 64

func newSynthesis(table *MemberTable, cfg config) synthesis {
	plans, _ := lru.New(maxPlans) // Fails only for a non-positive size
	return synthesis{table: table, cfg: cfg, plans: plans}
}

type bindingPlan struct {
	generation uint64
	members    map[string][]Binding // Present only for intercepted members
}

// proxy builds the handles of one proxy instance.
func (s *synthesis) proxy(ctx context.Context, target any, r Resolver, p InterceptorProvider) (*Proxy, error) {
	px := &Proxy{
		table:   s.table,
		target:  target,
		handles: make(map[string]*Handle, len(s.table.Members)),
	}

	var plan map[string][]Binding
	if p != nil {
		plan = s.planFor(p)
	}

	var errs []error
	intercepted := 0
	for _, m := range s.table.Members {
		h := &Handle{member: m, target: target}
		if bindings, ok := plan[m.Name]; ok {
			chain, err := Compose(m, bindings, r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			h.chain = chain
			h.capture = chain.captures || s.cfg.capture == CaptureAlways
			intercepted++
		}
		px.handles[m.Name] = h
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	emitProxyCreated(ctx, s.table, intercepted)
	return px, nil
}

// planFor returns the ordered bindings of every member p intercepts.
// Plans of versioned, comparable providers are reused until their
// generation changes; only the most recently used maxPlans are kept.
func (s *synthesis) planFor(p InterceptorProvider) map[string][]Binding {
	v, versioned := p.(Versioned)
	if !versioned || !reflect.TypeOf(p).Comparable() {
		return s.buildPlan(p)
	}

	gen := v.Generation()
	if cached, ok := s.plans.Get(p); ok {
		if bp := cached.(bindingPlan); bp.generation == gen {
			return bp.members
		}
	}

	plan := s.buildPlan(p)
	s.plans.Add(p, bindingPlan{generation: gen, members: plan})
	return plan
}

func (s *synthesis) buildPlan(p InterceptorProvider) map[string][]Binding {
	all := p.Bindings(s.table.Contract)
	plan := make(map[string][]Binding)
	for _, m := range s.table.Members {
		if !p.WillIntercept(m) {
			continue
		}
		plan[m.Name] = orderBindings(m.Name, all)
	}
	return plan
}
