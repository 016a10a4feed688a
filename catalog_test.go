package aspect_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/aspect"
	"github.com/zoobzio/aspect/internal/fixtures"
)

func member(t *testing.T, name string) *aspect.Member {
	t.Helper()
	f, err := aspect.Use[fixtures.Calculator, *fixtures.BasicCalculator]()
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	m, ok := f.Table().Lookup(name)
	if !ok {
		t.Fatalf("member %s not found", name)
	}
	return m
}

func TestCatalog_WillIntercept(t *testing.T) {
	c := aspect.NewCatalog()
	if c.WillIntercept(member(t, "Add")) {
		t.Error("empty catalog should not intercept")
	}

	if err := aspect.Intercept[fixtures.Calculator](c, "Add", 0, func(inv *aspect.Invocation) error { return inv.Proceed() }); err != nil {
		t.Fatalf("Intercept() error: %v", err)
	}
	if !c.WillIntercept(member(t, "Add")) {
		t.Error("Add should be intercepted")
	}
	if c.WillIntercept(member(t, "Reset")) {
		t.Error("Reset should not be intercepted")
	}

	_ = aspect.Intercept[fixtures.Calculator](c, aspect.AllMembers, 1, func(inv *aspect.Invocation) error { return inv.Proceed() })
	if !c.WillIntercept(member(t, "Reset")) {
		t.Error("AllMembers should intercept Reset")
	}
}

func TestCatalog_Generation(t *testing.T) {
	c := aspect.NewCatalog()
	g0 := c.Generation()

	_ = aspect.Intercept[fixtures.Calculator](c, "Add", 0, func(inv *aspect.Invocation) error { return inv.Proceed() })
	g1 := c.Generation()
	if g1 <= g0 {
		t.Error("Add should advance the generation")
	}

	c.Remove(calculatorType, "Add")
	if c.Generation() <= g1 {
		t.Error("Remove should advance the generation")
	}
	if len(c.Bindings(calculatorType)) != 0 {
		t.Error("Remove should drop the binding")
	}
}

func TestCatalog_BindingsAreCopied(t *testing.T) {
	c := aspect.NewCatalog()
	_ = aspect.InterceptCapturing[fixtures.Calculator](c, "Add", 0, func(inv *aspect.Invocation) error { return inv.Proceed() })

	bs := c.Bindings(calculatorType)
	if len(bs) != 1 || !bs[0].Capture {
		t.Fatalf("Bindings() = %+v", bs)
	}
	bs[0].Member = "Reset"
	if c.Bindings(calculatorType)[0].Member != "Add" {
		t.Error("Bindings() should return a copy")
	}
}

func TestIntercept_Invalid(t *testing.T) {
	c := aspect.NewCatalog()
	err := aspect.Intercept[fixtures.Calculator](c, "Add", 0, 42)
	if !errors.Is(err, aspect.ErrInvalidInterceptor) {
		t.Fatalf("Intercept() error = %v, want ErrInvalidInterceptor", err)
	}
	var ce *aspect.ConfigError
	if !errors.As(err, &ce) || ce.Contract != "fixtures.Calculator" {
		t.Errorf("error should name the contract, got %v", err)
	}
	if len(c.Bindings(calculatorType)) != 0 {
		t.Error("invalid bindings should not be added")
	}

	if err := aspect.InterceptCapturing[fixtures.Calculator](c, "Add", 0, "nope"); !errors.Is(err, aspect.ErrInvalidInterceptor) {
		t.Errorf("InterceptCapturing() error = %v, want ErrInvalidInterceptor", err)
	}
}

func TestProvider_NilFuncs(t *testing.T) {
	var p aspect.Provider
	if p.WillIntercept(member(t, "Add")) || p.Bindings(calculatorType) != nil {
		t.Error("zero Provider should intercept nothing")
	}
}
