package handlers

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// requestMiddleware assigns a request id, stores a request-scoped logger in the
// context, recovers panics, and records logs and metrics for the completed request
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		r = r.WithContext(logger.WithLogger(r.Context(), entry))

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				entry.WithField("panic", rec).Errorf("Recovered from panic\n%s", debug.Stack())
				if !wrapped.wroteHeader {
					writeDetail(wrapped, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", rec))
				}
			}

			duration := time.Since(start)
			s.metrics.ObserveRequest(route, wrapped.statusCode, duration)

			fields := entry.WithFields(logrus.Fields{
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
			switch {
			case wrapped.statusCode >= 500:
				fields.Error("Request completed")
			case wrapped.statusCode >= 400:
				fields.Warn("Request completed")
			default:
				fields.Info("Request completed")
			}
		}()

		next.ServeHTTP(wrapped, r)
	})
}

// rateLimit rejects requests beyond the configured rate with 429
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			writeDetail(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
