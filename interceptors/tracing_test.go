package interceptors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoobzio/aspect"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return tp, exporter
}

func TestTracing_RecordsSpan(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	calc, _ := wrap(t, bind(t, "Divide", 0, NewTracing(tp)))

	_, err := calc.Divide(context.Background(), 8, 4)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "fixtures.Calculator.Divide", spans[0].Name)
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind)
	assert.Contains(t, spans[0].Attributes, attribute.String("aspect.member", "Divide"))
	assert.Contains(t, spans[0].Attributes, attribute.String("aspect.kind", "sync"))
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_RecordsError(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	calc, _ := wrap(t, bind(t, "Divide", 0, NewTracing(tp)))

	_, err := calc.Divide(context.Background(), 1, 0)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "divide by zero", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestTracing_PropagatesSpanContext(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)

	var inner trace.SpanContext
	calc, _ := wrap(t,
		bind(t, "Flush", 0, NewTracing(tp)),
		bind(t, "Flush", 1, func(inv *aspect.Invocation) error {
			inner = trace.SpanContextFromContext(inv.Context())
			return inv.Proceed()
		}),
	)

	_, err := calc.Flush(context.Background()).Await(context.Background())
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.True(t, inner.IsValid())
	assert.Equal(t, spans[0].SpanContext.SpanID(), inner.SpanID())
}
