package api

import (
	"net/http"
	"os"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// TenantLimiter applies a per-tenant token bucket to the optimize endpoint.
// RATE_RPS/RATE_BURST configure the bucket; RATE_RPS=0 disables limiting.
type TenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewTenantLimiterFromEnv() *TenantLimiter {
	rps := 10.0
	burst := 20
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			rps = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return &TenantLimiter{limiters: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (t *TenantLimiter) Allow(tenant string) bool {
	if t == nil || t.rps == 0 {
		return true
	}
	t.mu.Lock()
	l := t.limiters[tenant]
	if l == nil {
		l = rate.NewLimiter(t.rps, t.burst)
		t.limiters[tenant] = l
	}
	t.mu.Unlock()
	return l.Allow()
}

// allowRequest applies the per-tenant bucket and writes the 429 itself.
func (s *Server) allowRequest(w http.ResponseWriter, r *http.Request) bool {
	if s.Limiter.Allow(s.getPrincipal(r).Tenant) {
		return true
	}
	writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "slow down and retry", r.URL.Path)
	return false
}
