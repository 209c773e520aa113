// Package integration executes calls against downstream services with
// bounded retries, and coordinates the transfer workflow that depends on
// them.
package integration

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/clients"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// RetryConfig bounds the retry loop. Zero values fall back to the defaults
// of 3 attempts with a 500ms base delay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Retrier runs downstream calls, retrying transient transport failures with
// a linearly growing delay between attempts.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// NewRetrier builds a Retrier from cfg. A nil logger is replaced with a
// no-op logger.
func NewRetrier(cfg RetryConfig, logger *zap.Logger) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		sleep:       sleepContext,
		logger:      logger,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.CodeIntegrationInterrupt,
			"interrupted while waiting to retry", ctx.Err())
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. Only transient transport statuses are
// retried; the delay before attempt n+1 is baseDelay*n.
func (r *Retrier) Do(ctx context.Context, desc string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return apperrors.Wrap(apperrors.CodeIntegrationFailure, desc+": "+err.Error(), err)
		}
		if attempt == r.maxAttempts {
			break
		}
		r.logger.Warn("retrying downstream call",
			zap.String("operation", desc),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))
		if err := r.sleep(ctx, r.baseDelay*time.Duration(attempt)); err != nil {
			return err
		}
	}
	return apperrors.Wrap(apperrors.CodeIntegrationFailure,
		desc+" failed after retries: "+lastErr.Error(), lastErr)
}

// Execute runs fn through the retrier and returns its value on success.
func Execute[T any](ctx context.Context, r *Retrier, desc string, fn func(ctx context.Context) (T, error)) (T, error) {
	var value T
	err := r.Do(ctx, desc, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func retryable(err error) bool {
	var transportErr *clients.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable()
	}
	return false
}
