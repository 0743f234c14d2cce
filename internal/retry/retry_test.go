package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), Config{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := WithRetry(context.Background(), Config{MaxAttempts: 2, Delay: time.Millisecond}, func() error {
		attempts++
		return boom
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, attempts)
}

func TestWithRetryStopsOnFirstSuccess(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), Config{MaxAttempts: 5, Delay: time.Millisecond}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := WithRetry(ctx, Config{MaxAttempts: 3, Delay: time.Minute}, func() error {
		attempts++
		return errors.New("always")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
