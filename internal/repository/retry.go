// internal/repository/retry.go
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

const maxRetries = 5

// Postgres codes for serialization_failure and deadlock_detected.
var retryableCodes = map[string]struct{}{
	"40001": {},
	"40P01": {},
}

// IsRetryable reports whether op may be repeated: an optimistic-lock conflict or a
// transient store failure that provably did not apply.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryableCodes[pgErr.Code]
		return ok
	}

	return pgconn.SafeToRetry(err)
}

func newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// Retry runs op until it succeeds, fails permanently, or the retry budget is spent.
// The last error is returned unchanged.
func Retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, newBackOff(ctx))
}
