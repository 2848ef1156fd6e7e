package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"citybites/internal/handlers"
)

// NewRouter configures all HTTP routes. Requests running longer than timeout
// have their context cancelled.
func NewRouter(handler *handlers.Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware)
	if timeout > 0 {
		r.Use(timeoutMiddleware(timeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HandleHealth)
		r.Post("/routes/optimize", handler.HandleOptimizeRoute)
		r.Get("/routes/runs/{fingerprint}", handler.HandleGetRouteRun)
		r.Get("/places/search", handler.HandleSearchPlaces)
		r.Post("/maps/export", handler.HandleExportMap)
		r.Get("/address-search", handler.HandleAddressSearch)
	})

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("[HTTP] %s %s %d %v request_id=%s", r.Method, r.URL.Path, lrw.statusCode, duration, chimiddleware.GetReqID(r.Context()))
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// timeoutMiddleware puts a deadline on the request context. Handlers report
// the timeout themselves so the error envelope stays consistent.
func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
