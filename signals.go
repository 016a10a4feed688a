package aspect

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for synthesis lifecycle events.
var (
	SignalFactorySynthesized = capitan.NewSignal("aspect.factory.synthesized", "Proxy factory synthesized")
	SignalFactoryCached      = capitan.NewSignal("aspect.factory.cached", "Proxy factory served from cache")
	SignalProxyCreated       = capitan.NewSignal("aspect.proxy.created", "Proxy instance created")
	SignalChainComposed      = capitan.NewSignal("aspect.chain.composed", "Interceptor chain composed for a member")
	SignalDispatcherCreated  = capitan.NewSignal("aspect.dispatcher.created", "Reflective dispatcher created")
)

// Keys for typed event data.
var (
	KeyContract       = capitan.NewStringKey("contract")
	KeyImplementation = capitan.NewStringKey("implementation")
	KeyMember         = capitan.NewStringKey("member")
	KeyMembers        = capitan.NewIntKey("members")
	KeyIntercepted    = capitan.NewIntKey("intercepted")
	KeyInterceptors   = capitan.NewIntKey("interceptors")
	KeyCaptured       = capitan.NewIntKey("captured")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyError          = capitan.NewErrorKey("error")
)

// emitFactorySynthesized emits an event when analysis finishes.
func emitFactorySynthesized(ctx context.Context, table *MemberTable, contract, impl string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContract.Field(contract),
		KeyImplementation.Field(impl),
		KeyDuration.Field(duration),
	}
	if table != nil {
		fields = append(fields, KeyMembers.Field(table.Len()))
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalFactorySynthesized, fields...)
	} else {
		capitan.Emit(ctx, SignalFactorySynthesized, fields...)
	}
}

// emitFactoryCached emits an event on a cache hit.
func emitFactoryCached(ctx context.Context, contract, impl string) {
	capitan.Emit(ctx, SignalFactoryCached,
		KeyContract.Field(contract),
		KeyImplementation.Field(impl),
	)
}

// emitProxyCreated emits an event when a proxy instance is built.
func emitProxyCreated(ctx context.Context, table *MemberTable, intercepted int) {
	capitan.Emit(ctx, SignalProxyCreated,
		KeyContract.Field(typeName(table.Contract)),
		KeyImplementation.Field(typeName(table.Impl)),
		KeyMembers.Field(table.Len()),
		KeyIntercepted.Field(intercepted),
	)
}

// emitChainComposed emits an event when a member's chain is built.
func emitChainComposed(ctx context.Context, m *Member, interceptors int, captures bool, duration time.Duration) {
	captured := 0
	if captures {
		captured = 1
	}
	capitan.Emit(ctx, SignalChainComposed,
		KeyContract.Field(typeName(m.Contract)),
		KeyMember.Field(m.Name),
		KeyInterceptors.Field(interceptors),
		KeyCaptured.Field(captured),
		KeyDuration.Field(duration),
	)
}

// emitDispatcherCreated emits an event when a reflective dispatcher is built.
func emitDispatcherCreated(ctx context.Context, table *MemberTable) {
	capitan.Emit(ctx, SignalDispatcherCreated,
		KeyContract.Field(typeName(table.Contract)),
		KeyImplementation.Field(typeName(table.Impl)),
		KeyMembers.Field(table.Len()),
	)
}
