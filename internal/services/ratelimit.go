package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedIPs bounds the limiter map; past it the whole map is dropped
// rather than aged entry by entry.
const maxTrackedIPs = 10000

type IPRateLimiter struct {
	ips    map[string]*rate.Limiter
	mu     sync.RWMutex
	r      rate.Limit
	b      int
	logger *slog.Logger
}

func NewIPRateLimiter(r rate.Limit, b int, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		logger: logger,
	}
}

// Start prunes the limiter map on the given interval until the worker
// context is cancelled. Run it like the other background jobs.
func (i *IPRateLimiter) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.mu.Lock()
			if len(i.ips) > maxTrackedIPs {
				i.logger.Info("Cleaning up rate limiter map", "count", len(i.ips))
				i.ips = make(map[string]*rate.Limiter)
			}
			i.mu.Unlock()
		}
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}

func (i *IPRateLimiter) tracked() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ips)
}
