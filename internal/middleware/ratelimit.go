package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"go-birthday-card/internal/metrics"
	"go-birthday-card/internal/ratelimit"
	"go-birthday-card/pkg/apierror"
)

const (
	globalLimiterKeys = 10000
	globalLimiterIdle = 10 * time.Minute
)

// RateLimitMiddleware is the coarse per-client token bucket applied to every
// API request. Route specific limits are layered on top with RouteLimit.
type RateLimitMiddleware struct {
	rpm     int
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimitMiddleware returns a limiter allowing rpm requests per minute
// per client. A non-positive rpm disables it.
func NewRateLimitMiddleware(rpm int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rpm:     rpm,
		clients: expirable.NewLRU[string, *rate.Limiter](globalLimiterKeys, nil, globalLimiterIdle),
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rpm <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !m.limiter(ClientIP(r)).Allow() {
			metrics.RateLimitedTotal.WithLabelValues("global").Inc()
			w.Header().Set("Retry-After", "60")
			writeAPIError(w, apierror.TooManyRequests(60))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) limiter(clientIP string) *rate.Limiter {
	if limiter, ok := m.clients.Get(clientIP); ok {
		return limiter
	}
	// racing first requests may each create a bucket; the last Add wins
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm)
	m.clients.Add(clientIP, limiter)
	return limiter
}

// RouteLimit rejects callers that exceed limiter for the named scope. Keys
// are per client and per scope.
func RouteLimit(scope string, limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(scope + ":" + ClientIP(r))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeAPIError(w, apierror.TooManyRequests(retry))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
