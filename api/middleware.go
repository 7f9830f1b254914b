package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reelscout/metrics"
)

type contextKey string

// ContextKeyRequestID carries the per-request id through the handler chain.
const ContextKeyRequestID contextKey = "request_id"

// RequestID returns the id assigned to this request, or "" outside the
// middleware chain.
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// ObservabilityMiddleware assigns each request an id, logs its outcome and
// records request counters and latency.
func ObservabilityMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := uuid.NewString()

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
			w.Header().Set("X-Request-ID", id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := routeTemplate(r)
			elapsed := time.Since(start)
			metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
			log.Printf("[http] %s %s status=%d duration=%s id=%s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Millisecond), id)
		})
	}
}

// routeTemplate returns the mux route pattern so metrics aggregate per route
// instead of per URL.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
