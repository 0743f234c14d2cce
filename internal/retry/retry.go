package retry

import (
	"context"
	"fmt"
	"time"

	"newsgrid/internal/logger"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // scale delay by attempt number
}

// WithRetry runs fn up to MaxAttempts times. A nil return stops
// immediately; the delay between attempts grows linearly when Backoff
// is set. Context cancellation interrupts the wait.
func WithRetry(ctx context.Context, config Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.Delay
			if config.Backoff {
				delay = time.Duration(attempt) * config.Delay
			}

			logger.Debug("attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", config.MaxAttempts,
				"delay", delay,
				"error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
