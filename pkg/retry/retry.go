package retry

import (
	"context"
	"time"

	"github.com/licenciapp/licencias-backend/pkg/config"
	"github.com/sethvargo/go-retry"
)

// Policy is the single retry definition shared by the radicado generator
// and the evidence store adapter: max attempts, capped exponential
// backoff, and an explicit retryable-error marker. Callers mark errors
// retryable via Retryable; anything else aborts immediately.
type Policy struct {
	maxAttempts uint64
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

const (
	defaultMaxAttempts = 5
	defaultBaseBackoff = 50 * time.Millisecond
	defaultMaxBackoff  = 2 * time.Second
)

// NewPolicy builds a Policy from configuration, falling back to defaults
// for zero values.
func NewPolicy(cfg config.RetryConfig) Policy {
	p := Policy{
		maxAttempts: cfg.MaxAttempts,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
	}
	if p.maxAttempts == 0 {
		p.maxAttempts = defaultMaxAttempts
	}
	if p.baseBackoff <= 0 {
		p.baseBackoff = defaultBaseBackoff
	}
	if p.maxBackoff <= 0 {
		p.maxBackoff = defaultMaxBackoff
	}
	return p
}

// MaxAttempts returns the total number of attempts the policy permits.
func (p Policy) MaxAttempts() uint64 {
	return p.maxAttempts
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is exhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(p.baseBackoff)
	backoff = retry.WithCappedDuration(p.maxBackoff, backoff)
	// WithMaxRetries counts retries after the first attempt.
	backoff = retry.WithMaxRetries(p.maxAttempts-1, backoff)
	return retry.Do(ctx, backoff, fn)
}

// Retryable marks err as safe to retry under the policy.
func Retryable(err error) error {
	return retry.RetryableError(err)
}
