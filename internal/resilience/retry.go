package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExecuteWithRetry runs op up to three times. Only connection-class errors
// are retried; anything else returns immediately. The wait before retry n
// is 1000ms * 2^n capped at 5s.
func (m *Manager) ExecuteWithRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= opRetries; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !IsConnectionError(err) {
			return err
		}
		m.log.Warn("operation failed on connection error",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == opRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.sleep(retryDelay(attempt))
	}
	return err
}

// retryDelay is the wait after the given failed attempt,
// 1000ms * 2^attempt capped at 5s
func retryDelay(attempt int) time.Duration {
	d := retryBase << uint(attempt)
	if d > retryCap {
		return retryCap
	}
	return d
}
