package fetch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/internal/urlnorm"
)

// HostLimiter rate-limits page fetches per hostname (boards.greenhouse.io,
// api.lever.co, a company's own careers host) so pagination against one
// board never hammers it.
type HostLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

// NewHostLimiter creates a HostLimiter with the given per-host rate.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	r := rate.Limit(reqPerSec)
	if reqPerSec <= 0 {
		r = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		m:     make(map[string]*rate.Limiter),
		rps:   r,
		burst: burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.rps, hl.burst)
	hl.m[host] = lim
	return lim
}

// WaitURL blocks until a token is available for the URL's host.
func (hl *HostLimiter) WaitURL(ctx context.Context, rawURL string) error {
	host := urlnorm.Host(rawURL)
	if host == "" {
		host = "_"
	}
	if err := hl.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("host limit wait: %w", err)
	}
	return nil
}
