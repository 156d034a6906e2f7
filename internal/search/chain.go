package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
)

// Chain tries searchers in priority order, returning the first provider
// that answers without error. A provider returning zero results is still a
// success; fallback happens only on provider failure, so a genuinely
// unanswerable query does not burn through every provider.
type Chain struct {
	searchers []Searcher
}

// NewChain creates a Chain over the given searchers, tried in order.
func NewChain(searchers ...Searcher) *Chain {
	return &Chain{searchers: searchers}
}

// Name implements Searcher.
func (c *Chain) Name() string {
	return "chain"
}

// Search implements Searcher.
func (c *Chain) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	if len(c.searchers) == 0 {
		return nil, eris.New("search: chain has no providers")
	}

	var lastErr error
	for _, s := range c.searchers {
		evidence, err := s.Search(ctx, query)
		if err == nil {
			return evidence, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		zap.L().Debug("search: provider failed, trying next",
			zap.String("provider", s.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
	}
	return nil, eris.Wrap(lastErr, "search: all providers failed")
}

// RateLimited wraps a Searcher with a token-bucket limiter so concurrent
// claim verifiers cannot exceed the provider's request budget.
type RateLimited struct {
	inner   Searcher
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited searcher allowing qps queries per
// second with the given burst.
func NewRateLimited(inner Searcher, qps float64, burst int) *RateLimited {
	if qps <= 0 {
		qps = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
}

// Name implements Searcher.
func (r *RateLimited) Name() string {
	return r.inner.Name()
}

// Search implements Searcher.
func (r *RateLimited) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "search: rate limiter wait")
	}
	return r.inner.Search(ctx, query)
}

// Guarded wraps a Searcher with a circuit breaker. Once the provider trips,
// queries fail fast with ErrCircuitOpen until the reset timeout elapses.
type Guarded struct {
	inner   Searcher
	breaker *resilience.CircuitBreaker
}

// NewGuarded creates a circuit-breaker-protected searcher.
func NewGuarded(inner Searcher, cfg resilience.CircuitBreakerConfig) *Guarded {
	if cfg.OnStateChange == nil {
		name := inner.Name()
		cfg.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("search: circuit state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}
	return &Guarded{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(cfg),
	}
}

// Name implements Searcher.
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// Search implements Searcher.
func (g *Guarded) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	var evidence []model.Evidence
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var searchErr error
		evidence, searchErr = g.inner.Search(ctx, query)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}
