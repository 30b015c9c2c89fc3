// Package ratelimit provides token-bucket admission control for the HTTP
// mirror, globally or per client host.
package ratelimit

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
)

// Config holds rate limiting configuration
type Config struct {
	// RequestsPerSecond is the sustained rate (0 or less = unlimited)
	RequestsPerSecond float64

	// Burst allows bursting up to N requests before rate limiting kicks in
	Burst int

	// PerHost gives every client host its own bucket
	PerHost bool

	// MaxHosts bounds the per-host table; it is reset when full
	MaxHosts int
}

// DefaultConfig returns the mirror defaults. Limiting is off until a rate
// is configured.
func DefaultConfig() *Config {
	return &Config{
		RequestsPerSecond: defaults.RateLimit,
		Burst:             defaults.RateBurst,
		PerHost:           true,
		MaxHosts:          4096,
	}
}

// Limiter admits or rejects requests.
type Limiter struct {
	config *Config
	global *rate.Limiter

	hostLimitersMu sync.Mutex
	hostLimiters   map[string]*rate.Limiter

	allowed  atomic.Int64
	rejected atomic.Int64
}

// Stats holds limiter counters
type Stats struct {
	Allowed  int64
	Rejected int64
	Hosts    int
}

// New creates a limiter. A nil config uses DefaultConfig.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxHosts <= 0 {
		cfg.MaxHosts = DefaultConfig().MaxHosts
	}
	l := &Limiter{config: cfg}
	if !cfg.PerHost {
		l.global = rate.NewLimiter(l.limit(), cfg.Burst)
	} else {
		l.hostLimiters = make(map[string]*rate.Limiter)
	}
	return l
}

// Enabled reports whether the limiter ever rejects.
func (l *Limiter) Enabled() bool {
	return l != nil && l.config.RequestsPerSecond > 0
}

// Allow reports whether a request from host may proceed now. host is
// ignored unless PerHost is set.
func (l *Limiter) Allow(host string) bool {
	if !l.Enabled() {
		return true
	}
	ok := l.limiterFor(host).Allow()
	if ok {
		l.allowed.Add(1)
	} else {
		l.rejected.Add(1)
	}
	return ok
}

func (l *Limiter) limit() rate.Limit {
	return rate.Limit(l.config.RequestsPerSecond)
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	if l.global != nil {
		return l.global
	}
	l.hostLimitersMu.Lock()
	defer l.hostLimitersMu.Unlock()

	if lim, ok := l.hostLimiters[host]; ok {
		return lim
	}
	if len(l.hostLimiters) >= l.config.MaxHosts {
		l.hostLimiters = make(map[string]*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit(), l.config.Burst)
	l.hostLimiters[host] = lim
	return lim
}

// Stats returns a snapshot of the counters.
func (l *Limiter) Stats() Stats {
	if l == nil {
		return Stats{}
	}
	s := Stats{Allowed: l.allowed.Load(), Rejected: l.rejected.Load()}
	if l.hostLimiters != nil {
		l.hostLimitersMu.Lock()
		s.Hosts = len(l.hostLimiters)
		l.hostLimitersMu.Unlock()
	}
	return s
}
