package api

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterPool manages per-endpoint rate limiters
type RateLimiterPool struct {
	limiters map[string]*rate.Limiter
	rates    map[string]int
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRateLimiterPool creates a new rate limiter pool
func NewRateLimiterPool(logger *slog.Logger) *RateLimiterPool {
	return &RateLimiterPool{
		limiters: make(map[string]*rate.Limiter),
		rates:    make(map[string]int),
		logger:   logger,
	}
}

// GetOrCreate returns the limiter for modelID, creating it on first use.
// The first requested rate wins; later mismatches are logged and ignored.
func (p *RateLimiterPool) GetOrCreate(modelID string, requestsPerMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists := p.limiters[modelID]; exists {
		if existing := p.rates[modelID]; existing != requestsPerMinute {
			p.logger.Warn("Rate limiter already exists with different rate, using existing rate",
				"model_id", modelID,
				"existing_rpm", existing,
				"requested_rpm", requestsPerMinute)
		}
		return limiter
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := max(5, requestsPerMinute/5) // 20% burst capacity
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	p.limiters[modelID] = limiter
	p.rates[modelID] = requestsPerMinute

	p.logger.Debug("Created rate limiter", "model_id", modelID, "rpm", requestsPerMinute, "rps", rps, "burst", burst)

	return limiter
}

// Wait blocks until the rate limiter allows the next request
func (p *RateLimiterPool) Wait(ctx context.Context, modelID string, requestsPerMinute int) error {
	if requestsPerMinute <= 0 {
		return ctx.Err()
	}
	return p.GetOrCreate(modelID, requestsPerMinute).Wait(ctx)
}
