package osm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Service names for rate limiting
	ServiceNominatim = "nominatim"
	ServiceOverpass  = "overpass"
)

// ServiceLimit allows one request per Every with bursts of Burst.
// A zero Every means unlimited.
type ServiceLimit struct {
	Every time.Duration
	Burst int
}

// DefaultLimits returns the limits required by the public instances'
// usage policies.
func DefaultLimits() map[string]ServiceLimit {
	return map[string]ServiceLimit{
		// https://operations.osmfoundation.org/policies/nominatim/
		ServiceNominatim: {Every: time.Second, Burst: 1},
		// https://wiki.openstreetmap.org/wiki/Overpass_API#Public_Overpass_API_instances
		ServiceOverpass: {Every: 30 * time.Second, Burst: 2},
	}
}

// Unlimited returns an empty limit set, for self-hosted instances and tests.
func Unlimited() map[string]ServiceLimit {
	return map[string]ServiceLimit{}
}

// RateLimiter manages rate limiting for different OpenStreetMap API services
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewRateLimiter builds one token bucket per configured service.
func NewRateLimiter(limits map[string]ServiceLimit, logger *slog.Logger) *RateLimiter {
	limiters := make(map[string]*rate.Limiter, len(limits))
	for service, l := range limits {
		limit := rate.Inf
		if l.Every > 0 {
			limit = rate.Every(l.Every)
		}
		burst := l.Burst
		if burst < 1 {
			burst = 1
		}
		limiters[service] = rate.NewLimiter(limit, burst)
	}
	return &RateLimiter{limiters: limiters, logger: logger}
}

// Wait blocks until the rate limit for the specified service allows an event
// or the context is canceled. Services without a limiter pass through.
func (rl *RateLimiter) Wait(ctx context.Context, service string) error {
	rl.mu.RLock()
	limiter, exists := rl.limiters[service]
	rl.mu.RUnlock()

	if !exists {
		return nil
	}

	if err := limiter.Wait(ctx); err != nil {
		rl.logger.Debug("rate limiter wait error", "service", service, "error", err)
		return err
	}

	return nil
}
