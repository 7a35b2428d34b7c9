package http

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

func RateLimitMiddleware(
	limiter *RateLimiter,
	logger *zap.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !limiter.Allow(ip) {
			logger.Warn("rate limit exceeded",
				zap.String("client", ip),
				zap.String("path", r.URL.Path))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
