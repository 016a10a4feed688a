package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"

	"github.com/zoobzio/aspect/internal/fixtures"
)

var errTransient = errors.New("transient")

func zeroBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func TestRetry_RecoversFromTransientErrors(t *testing.T) {
	logger, buf := newTestLogger()
	calc, impl := wrap(t,
		bind(t, "Divide", 0, NewRetry(3).WithBackOff(zeroBackOff).WithLogger(logger)),
		bind(t, "Divide", 1, flaky(2, errTransient)),
	)

	got, err := calc.Divide(context.Background(), 10, 2)
	assert.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, int64(1), impl.Calls.Load())
	assert.Contains(t, buf.String(), "retrying member")
}

func TestRetry_GivesUpWithLastError(t *testing.T) {
	calc, impl := wrap(t, bind(t, "Fail", 0, NewRetry(3).WithBackOff(zeroBackOff)))

	err := calc.Fail("disk full")

	var failure *fixtures.FailureError
	assert.ErrorAs(t, err, &failure)
	assert.Equal(t, "disk full", failure.Reason)
	assert.Equal(t, int64(4), impl.Calls.Load(), "one call plus three retries")
}

func TestRetry_NonRetryable(t *testing.T) {
	r := NewRetry(3).WithBackOff(zeroBackOff).WithRetryable(func(err error) bool {
		return !errors.Is(err, fixtures.ErrDivideByZero)
	})
	calc, impl := wrap(t, bind(t, "Divide", 0, r))

	_, err := calc.Divide(context.Background(), 1, 0)
	assert.Same(t, fixtures.ErrDivideByZero, err, "permanent errors keep their identity")
	assert.Equal(t, int64(1), impl.Calls.Load())
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	calc, impl := wrap(t, bind(t, "Divide", 0, NewRetry(3).WithBackOff(zeroBackOff)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := calc.Divide(ctx, 1, 0)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), impl.Calls.Load())
}

func TestRetry_DeferredMember(t *testing.T) {
	ctx := context.Background()
	calc, impl := wrap(t,
		bind(t, "Sum", 0, NewRetry(2).WithBackOff(zeroBackOff)),
		bind(t, "Sum", 1, flaky(1, errTransient)),
	)

	v, err := calc.Sum(ctx, 4, 5).Await(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, int64(1), impl.Calls.Load())
}
