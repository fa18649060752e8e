// Package retry runs operations under an exponential backoff policy,
// retrying only errors a classifier accepts as transient.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options configures Run.
type Options struct {
	// MaxRetries caps the number of retries after the first attempt. Zero means no cap;
	// the context then bounds the loop.
	MaxRetries uint64

	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64

	// Classifier reports whether err is worth retrying. Defaults to IsRetryable.
	Classifier func(err error) bool

	// OnRetry is called before sleeping ahead of each retry.
	OnRetry func(err error, next time.Duration)
}

// DefaultOptions returns sensible defaults for database operations:
// 5 retries starting at 100ms, capped at 5s, doubling each time, with 10% jitter.
func DefaultOptions() Options {
	return Options{
		MaxRetries:          5,
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.1,
	}
}

// Retryable is implemented by errors that declare their own retryability.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable reports whether err, or any error it wraps, declares itself retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	return false
}

// Permanent marks err as not retryable regardless of the classifier.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return backoff.Permanent(err)
}

// Run calls fn until it succeeds, returns a non-retryable error, the retry budget
// is spent, or ctx is done. The last error from fn is returned.
func Run(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}

	if opts.MaxInterval > 0 {
		b.MaxInterval = opts.MaxInterval
	}

	if opts.Multiplier > 0 {
		b.Multiplier = opts.Multiplier
	}

	b.RandomizationFactor = opts.RandomizationFactor
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = b
	if opts.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, opts.MaxRetries)
	}

	policy = backoff.WithContext(policy, ctx)

	classify := opts.Classifier
	if classify == nil {
		classify = IsRetryable
	}

	operation := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}

		if !classify(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	var notify backoff.Notify
	if opts.OnRetry != nil {
		notify = opts.OnRetry
	}

	return backoff.RetryNotify(operation, policy, notify)
}
