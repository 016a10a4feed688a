package interceptors

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoobzio/aspect"
)

const tracerName = "github.com/zoobzio/aspect/interceptors"

// Tracing starts an OpenTelemetry span named Contract.Member around each
// invocation. The span context replaces the invocation context while the
// rest of the chain runs.
type Tracing struct {
	tracer trace.Tracer
}

// NewTracing returns a Tracing interceptor. A nil provider uses the global one.
func NewTracing(tp trace.TracerProvider) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{tracer: tp.Tracer(tracerName)}
}

// Intercept implements aspect.Interceptor.
func (t *Tracing) Intercept(inv *aspect.Invocation) error {
	m := inv.Method()
	prev := inv.Context()

	ctx, span := t.tracer.Start(prev, m.String(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("aspect.contract", m.Contract.String()),
			attribute.String("aspect.member", m.Name),
			attribute.String("aspect.kind", m.Kind.String()),
		),
	)
	defer span.End()

	inv.SetContext(ctx)
	err := inv.Proceed()
	inv.SetContext(prev)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
