package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Limiter names
const (
	LimiterLLM    = "llm"
	LimiterSocial = "social"
	LimiterSheets = "sheets"
	LimiterRSS    = "rss"
)

// Limits holds per-minute budgets for NewLimiter
type Limits struct {
	LLMPerMinute    int
	LLMBurst        int
	SocialPerMinute int
	SheetsPerMinute int
}

// NewLimiter creates a limiter with the given per-minute budgets.
// Zero values fall back to the defaults.
func NewLimiter(l Limits) *MultiLimiter {
	if l.LLMPerMinute <= 0 {
		l.LLMPerMinute = 30
	}
	if l.LLMBurst <= 0 {
		l.LLMBurst = 4
	}
	if l.SocialPerMinute <= 0 {
		l.SocialPerMinute = 20
	}
	if l.SheetsPerMinute <= 0 {
		l.SheetsPerMinute = 60
	}

	m := NewMultiLimiter()
	m.AddLimiter(LimiterLLM, float64(l.LLMPerMinute)/60, l.LLMBurst)
	// Scraping is polite by default: small burst, one request every few seconds
	m.AddLimiter(LimiterSocial, float64(l.SocialPerMinute)/60, 2)
	m.AddLimiter(LimiterSheets, float64(l.SheetsPerMinute)/60, 5)
	m.AddLimiter(LimiterRSS, 1, 10)
	return m
}

// Unlimited creates a limiter that never blocks for any known name
func Unlimited() *MultiLimiter {
	m := NewMultiLimiter()
	for _, name := range []string{LimiterLLM, LimiterSocial, LimiterSheets, LimiterRSS} {
		m.AddLimiter(name, float64(rate.Inf), 1)
	}
	return m
}
