package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a token-bucket limiter so a
// burst of turns cannot exhaust the backend's request quota. Waiting
// respects the call's context deadline.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rps requests per second with the given
// burst size.
func NewRateLimitedProvider(p Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the underlying provider name
func (p *RateLimitedProvider) Name() string {
	return p.provider.Name()
}

// CreateCompletion waits for limiter capacity, then delegates.
func (p *RateLimitedProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, NewProviderError(p.provider.Name(), ErrorCodeRateLimit, err.Error(), err)
	}
	return p.provider.CreateCompletion(ctx, req)
}
