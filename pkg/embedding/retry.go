package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrUnavailable marks an embedding call that kept failing after bounded
// retries. Callers surface it as the typed EmbeddingUnavailable outcome.
var ErrUnavailable = errors.New("embedding provider unavailable")

// RetryPolicy bounds the exponential backoff applied to embedding calls.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// retryingProvider decorates a Provider with bounded exponential backoff.
// Context cancellation stops the retry loop immediately.
type retryingProvider struct {
	inner  Provider
	policy RetryPolicy
}

// WithRetry wraps a provider so transient failures are retried locally,
// per the propagation policy: retry inside the owning component, then
// surface a typed error.
func WithRetry(inner Provider, policy RetryPolicy) Provider {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &retryingProvider{inner: inner, policy: policy}
}

func (p *retryingProvider) ModelVersion() string { return p.inner.ModelVersion() }
func (p *retryingProvider) Dimension() int       { return p.inner.Dimension() }

func (p *retryingProvider) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.policy.InitialInterval

	vectors, err := backoff.Retry(ctx, func() ([][]float32, error) {
		return p.inner.EmbedBatch(ctx, texts, taskType)
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(p.policy.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return vectors, nil
}
