package aspect

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Dispatcher is the reflective counterpart of a generated Factory.
// It serves contracts without generated wrappers, at the cost of boxing
// every call.
type Dispatcher struct {
	synthesis
}

// NewDispatcher analyzes contract against impl. Use Dispatch for the
// cached form.
func NewDispatcher(contract, impl reflect.Type, opts ...Option) (*Dispatcher, error) {
	start := time.Now()
	cfg := newConfig(opts)
	table, err := analyze(contract, impl, nil, cfg.passing)
	emitFactorySynthesized(context.Background(), table, typeName(contract), typeName(impl), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	emitDispatcherCreated(context.Background(), table)
	return &Dispatcher{synthesis: newSynthesis(table, cfg)}, nil
}

// Table returns the analyzed member table.
func (d *Dispatcher) Table() *MemberTable {
	return d.table
}

// New constructs an implementation through r and returns a dynamic proxy.
func (d *Dispatcher) New(r Resolver, p InterceptorProvider) (*DynamicProxy, error) {
	target, err := construct(d.table.Impl, r)
	if err != nil {
		return nil, err
	}
	return d.Wrap(target, r, p)
}

// Wrap returns a dynamic proxy over target.
func (d *Dispatcher) Wrap(target any, r Resolver, p InterceptorProvider) (*DynamicProxy, error) {
	if target == nil {
		return nil, newConfigError(ErrUnresolvable, d.table.Contract, "", "nil target")
	}
	tv := reflect.ValueOf(target)
	if !tv.Type().Implements(d.table.Contract) {
		return nil, newConfigError(ErrMissingMember, d.table.Contract, "",
			fmt.Sprintf("%s does not implement the contract", tv.Type()))
	}

	px, err := d.proxy(context.Background(), target, r, p)
	if err != nil {
		return nil, err
	}

	vtable := make(map[string]reflect.Value, len(d.table.Members))
	for _, m := range d.table.Members {
		vtable[m.Name] = tv.MethodByName(m.Name)
	}
	return &DynamicProxy{proxy: px, vtable: vtable}, nil
}

// DynamicProxy calls contract members by name.
type DynamicProxy struct {
	proxy  *Proxy
	vtable map[string]reflect.Value
}

// Proxy returns the underlying proxy state.
func (dp *DynamicProxy) Proxy() *Proxy {
	return dp.proxy
}

// Call invokes member name with args and returns its non-error results.
//
// Args are given exactly as a direct call would take them, with a variadic
// tail passed as one slice. ByRef and Out arguments are pointers and are
// written back. Deferred members return their completion as the single
// result. A trailing error result is returned as the error.
func (dp *DynamicProxy) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	fn, ok := dp.vtable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, typeName(dp.proxy.table.Contract), name)
	}
	h := dp.proxy.handles[name]
	m := h.member

	in, err := callValues(m, args)
	if err != nil {
		return nil, err
	}

	if !h.Intercepted() {
		return splitResults(m, call(fn, m, in))
	}

	if m.Context >= 0 {
		if c, ok := args[m.Context].(context.Context); ok && c != nil {
			ctx = c
		}
	}
	inv := h.Begin(ctx)
	rec := &reflectRecord{fn: fn, in: in}
	if inv.Captured() {
		slots := make([]any, len(in))
		for i, p := range m.Params {
			switch {
			case p.Passing != ByValue && in[i].IsNil():
				slots[i] = reflect.Zero(p.Slot()).Interface()
			case p.Passing != ByValue:
				slots[i] = in[i].Elem().Interface()
			default:
				slots[i] = in[i].Interface()
			}
		}
		inv.Capture(slots...)
	}

	if m.Kind.Deferred() {
		c, _ := completionOf(m.Type.Out(0))
		out := c.spawn(inv.Context(), func(context.Context) (any, error) {
			if err := h.Run(inv, rec); err != nil {
				return nil, err
			}
			return inv.ReturnValue(), nil
		})
		return []any{out.Interface()}, nil
	}

	err = h.Run(inv, rec)
	if inv.Captured() {
		for i, p := range m.Params {
			if p.Passing != ByValue && !in[i].IsNil() {
				if err := assignSlot(in[i].Elem(), inv.args[i]); err != nil {
					return nil, err
				}
			}
		}
	}
	if m.Kind == SyncResult {
		return []any{inv.ReturnValue()}, err
	}
	return nil, err
}

// reflectRecord performs the real call of a dynamic invocation.
type reflectRecord struct {
	fn reflect.Value
	in []reflect.Value
}

func (r *reflectRecord) Invoke(inv *Invocation) error {
	m := inv.member
	in := r.in
	var refs []reflect.Value
	if inv.Captured() {
		in = make([]reflect.Value, len(m.Params))
		refs = make([]reflect.Value, len(m.Params))
		for i, p := range m.Params {
			v, err := slotValue(inv.args[i], p.Slot())
			if err != nil {
				return fmt.Errorf("%s argument %d: %w", m, i, err)
			}
			if p.Passing != ByValue {
				ptr := reflect.New(p.Slot())
				ptr.Elem().Set(v)
				refs[i] = ptr
				v = ptr
			}
			in[i] = v
		}
	}
	if m.Context >= 0 {
		in[m.Context] = contextValue(inv.Context())
	}

	out := call(r.fn, m, in)

	for i, ptr := range refs {
		if ptr.IsValid() {
			inv.args[i] = ptr.Elem().Interface()
		}
	}

	var err error
	if m.Errors {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}

	switch {
	case m.Kind == SyncResult:
		inv.SetReturnValue(out[0].Interface())
	case m.Kind.Deferred():
		c, ok := out[0].Interface().(completion)
		if !ok {
			return ErrNilFuture
		}
		v, aerr := c.awaitAny(nil)
		if aerr != nil {
			return aerr
		}
		if m.Kind.HasValue() {
			inv.SetReturnValue(v)
		}
	}
	return err
}

// callValues converts dynamic arguments to call values.
func callValues(m *Member, args []any) ([]reflect.Value, error) {
	if len(args) != len(m.Params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentIndex, m, len(m.Params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, p := range m.Params {
		v, err := slotValue(args[i], p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", m, i, err)
		}
		in[i] = v
	}
	return in, nil
}

// slotValue converts a boxed value to t. Nil becomes the zero value.
func slotValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not %s", ErrArgumentType, rv.Type(), t)
	}
	if rv.Type() != t {
		converted := reflect.New(t).Elem()
		converted.Set(rv)
		return converted, nil
	}
	return rv, nil
}

func assignSlot(dst reflect.Value, v any) error {
	sv, err := slotValue(v, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(sv)
	return nil
}

func contextValue(ctx context.Context) reflect.Value {
	if ctx == nil {
		ctx = context.Background()
	}
	v := reflect.New(contextType).Elem()
	v.Set(reflect.ValueOf(ctx))
	return v
}

func call(fn reflect.Value, m *Member, in []reflect.Value) []reflect.Value {
	if m.Variadic {
		return fn.CallSlice(in)
	}
	return fn.Call(in)
}

// splitResults separates a direct call's values from its error.
func splitResults(m *Member, out []reflect.Value) ([]any, error) {
	var err error
	if m.Errors {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, err
	}
	res := make([]any, len(out))
	for i, v := range out {
		res[i] = v.Interface()
	}
	return res, err
}
