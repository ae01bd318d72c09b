package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rowvault/csvvault-backend/api/responses"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/logger"
)

// RateLimiterStore is the fixed-window counter surface the limiter needs
// from redis. The store owns key namespacing; callers pass a bare scope.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// UploadRateLimitPolicy defines per-IP throttling for the upload surface.
type UploadRateLimitPolicy struct {
	window  time.Duration
	ipLimit int
}

// NewUploadRateLimitPolicy builds a policy with the supplied window and limit.
func NewUploadRateLimitPolicy(window time.Duration, ipLimit int) UploadRateLimitPolicy {
	return UploadRateLimitPolicy{window: window, ipLimit: ipLimit}
}

func (p UploadRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p UploadRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return "upload:" + ip
}

// UploadRateLimit enforces a fixed-window per-IP counter on upload requests.
func UploadRateLimit(policy UploadRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			scope := policy.ipScope(ip)
			if scope == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "upload.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
