package sqlite

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryWithBackoff retries operation on transient SQLite contention
// (SQLITE_BUSY, "database is locked"). Any other error, or ctx ending,
// stops at once.
func RetryWithBackoff(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
}
