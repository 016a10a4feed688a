package interceptors

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/aspect"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "test")
	require.NoError(t, err)
	calc, _ := wrap(t, bind(t, "Divide", 0, m))

	ctx := context.Background()
	_, _ = calc.Divide(ctx, 4, 2)
	_, _ = calc.Divide(ctx, 6, 2)
	_, _ = calc.Divide(ctx, 1, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("fixtures.Calculator", "Divide", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("fixtures.Calculator", "Divide", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("fixtures.Calculator", "Divide")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	_, err = NewMetrics(reg, "test")
	assert.Error(t, err)
}

func TestMetrics_PanicReleasesInFlight(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry(), "test")
	require.NoError(t, err)
	calc, _ := wrap(t,
		bind(t, "Add", 0, m),
		bind(t, "Add", 1, func(*aspect.Invocation) error { panic("boom") }),
	)

	assert.PanicsWithValue(t, "boom", func() { calc.Add(1, 2) })
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("fixtures.Calculator", "Add")))
}
