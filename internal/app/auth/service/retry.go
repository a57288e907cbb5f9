package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
)

// storeCall runs op once under the store timeout.
func storeCall[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(cctx)
}

// retryRead runs an idempotent store call, retrying only while it reports ErrUnavailable.
func retryRead[T any](ctx context.Context, timeout time.Duration, tries int, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := storeCall(ctx, timeout, op)
		if err != nil && !customErrors.IsUnavailable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(tries)))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if !customErrors.IsUnavailable(err) {
			return res, customErrors.WrapUnavailable(err, "retry")
		}
	}
	return res, err
}
