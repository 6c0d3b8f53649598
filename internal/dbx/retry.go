package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a store call is retried.
type RetryPolicy struct {
	MaxRetries uint64
	Backoff    time.Duration
}

// IsTransient reports whether err looks like a connectivity problem that a
// retry might fix, as opposed to a query or constraint failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// Retry calls fn until it succeeds, returns a non-transient error, or the
// policy is exhausted. The last error is returned unchanged so callers can
// still match it with errors.Is.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	b := retry.WithMaxRetries(p.MaxRetries, retry.NewExponential(backoff))

	var last error
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		last = fn(ctx)
		if IsTransient(last) {
			return retry.RetryableError(last)
		}
		return last
	})
	if err != nil && last != nil {
		return last
	}
	return err
}
