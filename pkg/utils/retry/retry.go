// Package retry wraps calls to external providers with exponential backoff.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/metrics"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

var transientMarkers = []string{
	"timeout",
	"rate limit",
	"429",
	"500",
	"503",
}

// Policy controls how many times and how slowly an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry. It doubles on each following retry.
	BaseDelay time.Duration
	// Provider labels log lines and metrics.
	Provider string
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy(provider string) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Provider:   provider,
	}
}

// Delay returns the wait before the retry following the given failed attempt (0-origin).
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// IsTransient reports whether err is expected to succeed on retry. A
// deadline hit by the provider call itself counts as a timeout; the caller's
// own cancellation is checked by Do, not here.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrPermanentProvider) {
		return false
	}
	if errors.Is(err, model.ErrTransientProvider) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do invokes op and retries it while it fails with a transient error and
// retries remain. Non-transient errors are returned after the first attempt.
// Once ctx is done no further attempt is made and any pending wait ends.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := logging.From(ctx)

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		metrics.ProviderCall(p.Provider, err)
		if err == nil {
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, goerr.Wrap(ctxErr, "provider call cancelled",
				goerr.V("provider", p.Provider),
				goerr.V("attempts", attempt+1),
				goerr.V("last_error", err.Error()),
			)
		}

		if !IsTransient(err) {
			return zero, goerr.Wrap(err, "provider call failed",
				goerr.V("provider", p.Provider),
				goerr.V("attempt", attempt+1),
			)
		}

		if attempt >= p.MaxRetries {
			return zero, goerr.Wrap(err, "provider call failed after retries",
				goerr.V("provider", p.Provider),
				goerr.V("attempts", attempt+1),
			)
		}

		delay := p.Delay(attempt)
		logger.Warn("transient provider error, retrying",
			"provider", p.Provider,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		metrics.ProviderRetry(p.Provider)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, goerr.Wrap(ctx.Err(), "retry cancelled",
				goerr.V("provider", p.Provider),
				goerr.V("attempts", attempt+1),
				goerr.V("last_error", err.Error()),
			)
		case <-timer.C:
		}
	}
}
