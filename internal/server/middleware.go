package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lemore/letgo-buddy/internal/envelope"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int64("durationMs", time.Since(start).Milliseconds()).
			Msg("http request")
	})
}

// recoverer converts a handler panic into the same envelope shape the
// pipeline returns, so a caller never sees a non-envelope body.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				env := envelope.Failure(uuid.NewString(), time.Now(), envelope.Internal("unexpected server error"))
				writeJSON(w, http.StatusInternalServerError, env)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ipLimiter tracks one token bucket per client IP.
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[ip]
	if !ok {
		rl.prune()
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastAccess = time.Now()
	return l.limiter.Allow()
}

// prune drops buckets idle for over ten minutes. Called with the lock held
// whenever a new client shows up, which keeps the map bounded without a
// background goroutine.
func (rl *rateLimiter) prune() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, l := range rl.limiters {
		if l.lastAccess.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.allow(ip) {
			env := envelope.Failure(uuid.NewString(), time.Now(), &envelope.Error{
				Code:    "rate_limited",
				Message: "too many requests, slow down and retry",
			})
			writeJSON(w, http.StatusTooManyRequests, env)
			return
		}
		next.ServeHTTP(w, r)
	})
}
