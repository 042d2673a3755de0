package handler

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/service"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("handled request", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack())) // a multi-line trace reads badly through slog
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// auth resolves the bearer token into the calling user.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, _ := strings.Cut(r.Header.Get("Authorization"), " ")
		if scheme != "Bearer" {
			token = ""
		}

		user, err := h.service.ResolveIdentity(r.Context(), token)
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user)))
	})
}

func (h *Handler) RequiredRole(role domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := service.RequireRole(identity(r.Context()), role); err != nil {
				h.errorResponse(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loginRateLimit throttles login attempts per client address.
func (h *Handler) loginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit := h.config.Auth.LoginRateLimit
		window := time.Duration(h.config.Auth.LoginRateWindow) * time.Second
		if !h.limiter.Allow(r.Context(), clientIP(r), limit, window) {
			h.errorResponse(w, r, domain.Errorf(domain.ErrTooManyRequests, "Too many login attempts, try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP is the peer address. Forwarding headers are ignored since any
// client can set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
