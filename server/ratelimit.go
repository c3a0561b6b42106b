package server

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

// ipLimiter keeps one token bucket per client ip. Buckets idle for longer
// than limiterIdleTTL are dropped.
type ipLimiter struct {
	rate    rate.Limit
	burst   int
	buckets *cache.Cache
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		buckets: cache.New(limiterIdleTTL, limiterIdleTTL),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	return l.bucket(ip).Allow()
}

func (l *ipLimiter) bucket(ip string) *rate.Limiter {
	if v, ok := l.buckets.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(ip, lim)
		return lim
	}
	lim := rate.NewLimiter(l.rate, l.burst)
	if err := l.buckets.Add(ip, lim, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same ip
		if v, ok := l.buckets.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}
