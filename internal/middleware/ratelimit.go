package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/metrics"
)

// limiterTTL is how long an idle client's limiter is kept.
const limiterTTL = 15 * time.Minute

// RateLimit limits each client IP to rps requests per second with the given
// burst. Rejected requests get 429 with a Retry-After header.
//
// The client IP is taken from r.RemoteAddr, so chi's RealIP middleware must
// run first when the server sits behind a proxy. A non-positive rps disables
// the limiter.
func RateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newLimiterStore(rate.Limit(rps), max(burst, 1), time.Now)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if store.get(ip).Allow() {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimited.Inc()
			logger.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many requests, try again later."}` + "\n"))
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client. Idle entries are swept
// at most once per limiterTTL, on the request path.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterStore(limit rate.Limit, burst int, now func() time.Time) *limiterStore {
	return &limiterStore{
		limiters:  make(map[string]*limiterEntry),
		limit:     limit,
		burst:     burst,
		now:       now,
		lastSweep: now(),
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterTTL {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) >= limiterTTL {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	if e, ok := s.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// clientIP strips the port from r.RemoteAddr when there is one.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
