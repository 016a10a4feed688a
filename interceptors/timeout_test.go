package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/aspect"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	var inner, outer bool
	calc, _ := wrap(t,
		bind(t, "Divide", 0, func(inv *aspect.Invocation) error {
			err := inv.Proceed()
			_, outer = inv.Context().Deadline()
			return err
		}),
		bind(t, "Divide", 1, NewTimeout(time.Minute)),
		bind(t, "Divide", 2, func(inv *aspect.Invocation) error {
			_, inner = inv.Context().Deadline()
			return inv.Proceed()
		}),
	)

	got, err := calc.Divide(context.Background(), 6, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.True(t, inner, "inner interceptors see the deadline")
	assert.False(t, outer, "the previous context is restored")
}

func TestTimeout_UpdatesCapturedContext(t *testing.T) {
	var hasDeadline bool
	b := bind(t, "Divide", 1, func(inv *aspect.Invocation) error {
		_, hasDeadline = aspect.Arg[context.Context](inv, 0).Deadline()
		return inv.Proceed()
	})
	b.Capture = true
	calc, _ := wrap(t, bind(t, "Divide", 0, NewTimeout(time.Minute)), b)

	_, err := calc.Divide(context.Background(), 6, 3)
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}

func TestTimeout_Expires(t *testing.T) {
	calc, impl := wrap(t,
		bind(t, "Flush", 0, NewTimeout(time.Millisecond)),
		bind(t, "Flush", 1, func(inv *aspect.Invocation) error {
			<-inv.Context().Done()
			return inv.Proceed()
		}),
	)

	_, err := calc.Flush(context.Background()).Await(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), impl.Flushes.Load())
}
