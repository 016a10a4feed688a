package interceptors

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoobzio/aspect"
	"github.com/zoobzio/aspect/internal/fixtures"
)

var calculatorType = reflect.TypeFor[fixtures.Calculator]()

// wrap proxies a fresh BasicCalculator with bindings.
func wrap(t *testing.T, bindings ...aspect.Binding) (fixtures.Calculator, *fixtures.BasicCalculator) {
	t.Helper()
	factory, err := aspect.Use[fixtures.Calculator, *fixtures.BasicCalculator]()
	require.NoError(t, err)

	impl := fixtures.NewCalculator()
	calc, err := factory.Wrap(impl, nil, aspect.NewCatalog().Add(calculatorType, bindings...))
	require.NoError(t, err)
	return calc, impl
}

func bind(t *testing.T, member string, order int, v any) aspect.Binding {
	t.Helper()
	b, err := aspect.NewBinding(member, order, v)
	require.NoError(t, err)
	return b
}

func member(t *testing.T, name string) *aspect.Member {
	t.Helper()
	factory, err := aspect.Use[fixtures.Calculator, *fixtures.BasicCalculator]()
	require.NoError(t, err)
	m, ok := factory.Table().Lookup(name)
	require.True(t, ok, "member %s", name)
	return m
}

// flaky fails the first n invocations with err and proceeds afterwards.
func flaky(n int, err error) func(*aspect.Invocation) error {
	calls := 0
	return func(inv *aspect.Invocation) error {
		calls++
		if calls <= n {
			return err
		}
		return inv.Proceed()
	}
}
