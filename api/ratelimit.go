package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per caller. Buckets idle for longer than the cache
// TTL are evicted.
type rateLimiter struct {
	responder Responder
	limiters  *cache.Cache
	limit     rate.Limit
	burst     int
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &rateLimiter{
		responder: NewResponder(log.With().Str("handlerName", "rateLimiter").Logger()),
		limiters:  cache.New(10*time.Minute, 20*time.Minute),
		limit:     limit,
		burst:     burst,
	}
}

func (rl *rateLimiter) limiterFor(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Get(key); ok {
		rl.limiters.SetDefault(key, limiter)
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if existing, ok := rl.limiters.Get(key); ok {
			return existing.(*rate.Limiter)
		}
	}
	return limiter
}

// limitWrites applies the per-caller bucket to mutating requests. The caller is the
// verified subject when present, otherwise the client address.
func (rl *rateLimiter) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key, ok := ctxGetUserID(r.Context())
		if !ok {
			key = clientIP(r)
		}

		reservation := rl.limiterFor(key).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			rl.responder.WriteError(w, errs.NewRateLimitError(delay))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
