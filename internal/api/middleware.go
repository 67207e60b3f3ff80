package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"avtoservis/internal/metrics"
	"avtoservis/internal/service"
)

type ctxKey int

const principalKey ctxKey = iota

// principalFromContext returns the authenticated principal, if any.
func principalFromContext(ctx context.Context) (service.Principal, bool) {
	p, ok := ctx.Value(principalKey).(service.Principal)
	return p, ok
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
	})
}

// authMiddleware verifies the bearer token and stores the principal in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			metrics.IncAuthFailure()
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			metrics.IncAuthFailure()
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		p := service.Principal{ID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// adminOnly rejects non-admin principals. Must run after authMiddleware.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFromContext(r.Context())
		if !ok || !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if p, ok := principalFromContext(r.Context()); ok {
		return p.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
