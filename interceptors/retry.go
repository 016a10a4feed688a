package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zoobzio/aspect"
)

// Retry proceeds again when the rest of the chain fails.
// The caller receives the last error unchanged once retries run out,
// the error is not retryable, or the invocation context is done.
type Retry struct {
	retries    uint64
	newBackOff func() backoff.BackOff
	retryable  func(error) bool
	logger     *slog.Logger
}

// NewRetry returns a Retry making at most retries extra attempts with
// exponential backoff.
func NewRetry(retries uint64) *Retry {
	return &Retry{
		retries: retries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		logger: slog.Default(),
	}
}

// WithBackOff replaces the backoff policy. fn is called once per invocation.
func (r *Retry) WithBackOff(fn func() backoff.BackOff) *Retry {
	r.newBackOff = fn
	return r
}

// WithRetryable limits retries to errors for which fn reports true.
func (r *Retry) WithRetryable(fn func(error) bool) *Retry {
	r.retryable = fn
	return r
}

// WithLogger sets the logger that records each retry at debug level.
func (r *Retry) WithLogger(logger *slog.Logger) *Retry {
	r.logger = logger
	return r
}

// Intercept implements aspect.Interceptor.
func (r *Retry) Intercept(inv *aspect.Invocation) error {
	ctx := inv.Context()
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.retries), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := inv.Proceed()
		if err != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.DebugContext(ctx, "retrying member",
			slog.String("member", inv.Method().String()),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	}
	return backoff.RetryNotify(op, b, notify)
}
