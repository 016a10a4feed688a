package interceptors

import (
	"time"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/aspect"
)

// Signals emitted by the Events interceptor.
var (
	SignalInvocationStart    = capitan.NewSignal("aspect.invocation.start", "Proxied member invocation started")
	SignalInvocationComplete = capitan.NewSignal("aspect.invocation.complete", "Proxied member invocation completed")
)

// Keys for invocation event data.
var (
	KeyInvocation = capitan.NewStringKey("invocation")
	KeyArguments  = capitan.NewStringKey("arguments")
	KeyKind       = capitan.NewStringKey("kind")
)

// Events emits capitan signals around every invocation.
type Events struct {
	codec aspect.Codec
}

// NewEvents returns an Events interceptor.
func NewEvents() *Events {
	return &Events{}
}

// WithArguments encodes captured arguments into start events with codec.
func (e *Events) WithArguments(codec aspect.Codec) *Events {
	e.codec = codec
	return e
}

// CapturesArguments implements aspect.ArgumentCapturer.
func (e *Events) CapturesArguments() bool { return e.codec != nil }

// Intercept implements aspect.Interceptor.
func (e *Events) Intercept(inv *aspect.Invocation) error {
	ctx := inv.Context()
	m := inv.Method()
	id := inv.ID().String()

	fields := []capitan.Field{
		KeyInvocation.Field(id),
		aspect.KeyContract.Field(m.Contract.String()),
		aspect.KeyMember.Field(m.Name),
		KeyKind.Field(m.Kind.String()),
	}
	if e.codec != nil && inv.Captured() {
		if data, err := e.codec.Marshal(keyArguments(m, inv.Arguments())); err == nil {
			fields = append(fields, KeyArguments.Field(string(data)))
		}
	}
	capitan.Emit(ctx, SignalInvocationStart, fields...)

	start := time.Now()
	err := inv.Proceed()

	done := []capitan.Field{
		KeyInvocation.Field(id),
		aspect.KeyContract.Field(m.Contract.String()),
		aspect.KeyMember.Field(m.Name),
		aspect.KeyDuration.Field(time.Since(start)),
	}
	if err != nil {
		done = append(done, aspect.KeyError.Field(err))
		capitan.Error(ctx, SignalInvocationComplete, done...)
	} else {
		capitan.Emit(ctx, SignalInvocationComplete, done...)
	}
	return err
}
