package aspect_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/aspect"
	"github.com/zoobzio/aspect/internal/fixtures"
)

func dispatcher(t *testing.T, opts ...aspect.Option) *aspect.Dispatcher {
	t.Helper()
	d, err := aspect.NewDispatcher(calculatorType, reflect.TypeFor[*fixtures.BasicCalculator](), opts...)
	if err != nil {
		t.Fatalf("NewDispatcher() error: %v", err)
	}
	return d
}

func dynamic(t *testing.T, d *aspect.Dispatcher, impl *fixtures.BasicCalculator, bindings ...aspect.Binding) *aspect.DynamicProxy {
	t.Helper()
	var provider aspect.InterceptorProvider
	if len(bindings) > 0 {
		provider = aspect.NewCatalog().Add(calculatorType, bindings...)
	}
	dp, err := d.Wrap(impl, nil, provider)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	return dp
}

func TestDispatch_Cached(t *testing.T) {
	aspect.Reset()

	d1, err := aspect.Dispatch(calculatorType, reflect.TypeFor[*fixtures.BasicCalculator]())
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	d2, _ := aspect.Dispatch(calculatorType, reflect.TypeFor[*fixtures.BasicCalculator]())
	if d1 != d2 {
		t.Error("Dispatch() should return cached dispatcher")
	}
	if d1.Table().Len() != 9 {
		t.Errorf("Table().Len() = %d, want 9", d1.Table().Len())
	}

	if _, err := aspect.Dispatch(reflect.TypeFor[int](), reflect.TypeFor[int]()); !errors.Is(err, aspect.ErrNotInterface) {
		t.Errorf("Dispatch(int) error = %v, want ErrNotInterface", err)
	}
}

func TestDynamicProxy_Forwarding(t *testing.T) {
	impl := fixtures.NewCalculator()
	dp := dynamic(t, dispatcher(t), impl)

	out, err := dp.Call(context.Background(), "Add", 2, 3)
	if err != nil || len(out) != 1 || out[0] != 5 {
		t.Errorf("Call(Add) = %v, %v", out, err)
	}

	out, err = dp.Call(context.Background(), "Divide", context.Background(), 1, 0)
	if !errors.Is(err, fixtures.ErrDivideByZero) || len(out) != 1 || out[0] != 0 {
		t.Errorf("Call(Divide) = %v, %v", out, err)
	}

	out, err = dp.Call(context.Background(), "Reset")
	if err != nil || out != nil {
		t.Errorf("Call(Reset) = %v, %v", out, err)
	}
	if dp.Proxy().Intercepted() != 0 {
		t.Error("no member should be intercepted")
	}
}

func TestDynamicProxy_CallErrors(t *testing.T) {
	dp := dynamic(t, dispatcher(t), fixtures.NewCalculator())

	if _, err := dp.Call(context.Background(), "Multiply", 1, 2); !errors.Is(err, aspect.ErrUnknownMember) {
		t.Errorf("unknown member error = %v", err)
	}
	if _, err := dp.Call(context.Background(), "Add", 1); !errors.Is(err, aspect.ErrArgumentIndex) {
		t.Errorf("argument count error = %v", err)
	}
	if _, err := dp.Call(context.Background(), "Add", 1, "two"); !errors.Is(err, aspect.ErrArgumentType) {
		t.Errorf("argument type error = %v", err)
	}
}

func TestDynamicProxy_Intercepted(t *testing.T) {
	double := binding(t, "Add", 0, func(inv *aspect.Invocation) error {
		if err := inv.Proceed(); err != nil {
			return err
		}
		inv.SetReturnValue(aspect.Result[int](inv) * 2)
		return nil
	})
	dp := dynamic(t, dispatcher(t), fixtures.NewCalculator(), double)

	out, err := dp.Call(context.Background(), "Add", 2, 3)
	if err != nil || out[0] != 10 {
		t.Errorf("Call(Add) = %v, %v; want [10]", out, err)
	}
}

func TestDynamicProxy_CapturedArguments(t *testing.T) {
	b := binding(t, "Divide", 0, func(inv *aspect.Invocation) error {
		if err := inv.SetArg(2, 5); err != nil {
			return err
		}
		return inv.Proceed()
	})
	b.Capture = true
	dp := dynamic(t, dispatcher(t), fixtures.NewCalculator(), b)

	out, err := dp.Call(context.Background(), "Divide", context.Background(), 100, 0)
	if err != nil || out[0] != 20 {
		t.Errorf("Call(Divide) = %v, %v; want [20]", out, err)
	}
}

func TestDynamicProxy_ErrorIdentity(t *testing.T) {
	dp := dynamic(t, dispatcher(t), fixtures.NewCalculator(), binding(t, aspect.AllMembers, 0, func(inv *aspect.Invocation) error {
		return inv.Proceed()
	}))

	if _, err := dp.Call(context.Background(), "Divide", context.Background(), 1, 0); err != fixtures.ErrDivideByZero {
		t.Errorf("Call(Divide) error = %v, want the original value", err)
	}
}

func TestDynamicProxy_Deferred(t *testing.T) {
	ctx := context.Background()
	impl := fixtures.NewCalculator()
	plusOne := func(inv *aspect.Invocation) error {
		if err := inv.Proceed(); err != nil {
			return err
		}
		inv.SetReturnValue(aspect.Result[int](inv) + 1)
		return nil
	}
	dp := dynamic(t, dispatcher(t), impl,
		binding(t, "Sum", 0, plusOne),
		binding(t, "Peek", 0, plusOne),
		binding(t, "Flush", 0, func(inv *aspect.Invocation) error { return inv.Proceed() }),
	)

	out, err := dp.Call(ctx, "Sum", ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("Call(Sum) error: %v", err)
	}
	f, ok := out[0].(*aspect.Future[int])
	if !ok {
		t.Fatalf("Call(Sum) returned %T", out[0])
	}
	if v, err := f.Await(ctx); v != 7 || err != nil {
		t.Errorf("Sum = %d, %v; want 7", v, err)
	}

	out, _ = dp.Call(ctx, "Peek")
	vf, ok := out[0].(aspect.ValueFuture[int])
	if !ok {
		t.Fatalf("Call(Peek) returned %T", out[0])
	}
	if v, _ := vf.Await(ctx); v != 7 {
		t.Errorf("Peek = %d, want 7", v)
	}

	out, _ = dp.Call(ctx, "Flush", ctx)
	task := out[0].(*aspect.Task)
	if _, err := task.Await(ctx); err != nil {
		t.Errorf("Flush error = %v", err)
	}
	if impl.Flushes.Load() != 1 {
		t.Errorf("Flushes = %d, want 1", impl.Flushes.Load())
	}
}

func TestDynamicProxy_RefOut(t *testing.T) {
	d := dispatcher(t, aspect.WithPassing("Exchange", 0, aspect.ByRef), aspect.WithPassing("Exchange", 1, aspect.Out))
	m, _ := d.Table().Lookup("Exchange")
	if m.Params[0].Passing != aspect.ByRef || m.Params[1].Passing != aspect.Out {
		t.Fatalf("passing = %v, %v", m.Params[0].Passing, m.Params[1].Passing)
	}

	b := binding(t, "Exchange", 0, func(inv *aspect.Invocation) error {
		if aspect.Arg[int](inv, 0) != 0 {
			return inv.Proceed()
		}
		_ = inv.SetArg(0, 123)
		return inv.SetArg(1, 456)
	})
	b.Capture = true
	impl := fixtures.NewCalculator()
	dp := dynamic(t, d, impl, b)

	x, y := 0, 0
	if _, err := dp.Call(context.Background(), "Exchange", &x, &y); err != nil {
		t.Fatalf("Call(Exchange) error: %v", err)
	}
	if x != 123 || y != 456 || impl.Calls.Load() != 0 {
		t.Errorf("x, y = %d, %d; calls = %d", x, y, impl.Calls.Load())
	}

	x, y = 1, 0
	_, _ = dp.Call(context.Background(), "Exchange", &x, &y)
	if x != 10 || y != 10 {
		t.Errorf("x, y = %d, %d; want 10, 10", x, y)
	}
}

func TestDispatcher_InvalidPassing(t *testing.T) {
	_, err := aspect.NewDispatcher(calculatorType, reflect.TypeFor[*fixtures.BasicCalculator](), aspect.WithPassing("Add", 0, aspect.ByRef))
	if !errors.Is(err, aspect.ErrInvalidPassing) {
		t.Errorf("NewDispatcher() error = %v, want ErrInvalidPassing", err)
	}
}

func TestDispatcher_WrapWrongTarget(t *testing.T) {
	d := dispatcher(t)
	if _, err := d.Wrap("not a calculator", nil, nil); !errors.Is(err, aspect.ErrMissingMember) {
		t.Errorf("Wrap() error = %v, want ErrMissingMember", err)
	}
	if _, err := d.Wrap(nil, nil, nil); !errors.Is(err, aspect.ErrUnresolvable) {
		t.Errorf("Wrap(nil) error = %v, want ErrUnresolvable", err)
	}
}

func TestDispatcher_New(t *testing.T) {
	dp, err := dispatcher(t).New(nil, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := dp.Proxy().Target().(*fixtures.BasicCalculator); !ok {
		t.Errorf("Target() = %T", dp.Proxy().Target())
	}
}

type computer interface {
	Compute(ctx context.Context) *aspect.Future[int]
}

// gatedComputer completes Compute only when release is closed.
type gatedComputer struct {
	release chan struct{}
}

func (g gatedComputer) Compute(context.Context) *aspect.Future[int] {
	f, complete := aspect.NewFuture[int]()
	go func() {
		<-g.release
		complete(42, nil)
	}()
	return f
}

func TestDynamicProxy_DeferredIgnoresCallerCancellation(t *testing.T) {
	d, err := aspect.NewDispatcher(reflect.TypeFor[computer](), reflect.TypeFor[gatedComputer]())
	if err != nil {
		t.Fatalf("NewDispatcher() error: %v", err)
	}
	impl := gatedComputer{release: make(chan struct{})}
	provider := aspect.NewCatalog().Add(reflect.TypeFor[computer](), binding(t, "Compute", 0, func(inv *aspect.Invocation) error {
		return inv.Proceed()
	}))
	dp, err := d.Wrap(impl, nil, provider)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out, err := dp.Call(ctx, "Compute", ctx)
	if err != nil {
		t.Fatalf("Call(Compute) error: %v", err)
	}
	cancel()
	close(impl.release)

	v, err := out[0].(*aspect.Future[int]).Await(context.Background())
	if err != nil || v != 42 {
		t.Errorf("Compute = %d, %v; want 42", v, err)
	}
}
