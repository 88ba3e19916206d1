package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig tunes WithRetry.
type RetryConfig struct {
	MaxTries uint          `conf:"max_tries" yaml:"max_tries" json:"max_tries"`
	MaxDelay time.Duration `conf:"max_delay" yaml:"max_delay" json:"max_delay"`
}

// DefaultRetryConfig suits the short serialization conflicts cascades hit.
var DefaultRetryConfig = RetryConfig{
	MaxTries: 3,
	MaxDelay: 500 * time.Millisecond,
}

// WithRetry re-runs the whole logical operation on transient storage
// conflicts with exponential backoff. The operation must open its own
// transaction on every attempt; partial state never leaks between tries.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = cfg.MaxDelay

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}

		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(cfg.MaxTries))
}
