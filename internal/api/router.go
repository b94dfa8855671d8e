package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/thesisrouter/internal/api/handlers"
	"github.com/wonny/thesisrouter/internal/api/ws"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Handlers bundles everything the router mounts. Runs and Hub are optional.
type Handlers struct {
	Route *handlers.RouteHandler
	Runs  *handlers.RunsHandler
	Hub   *ws.Hub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Routing endpoints
	api.HandleFunc("/route", h.Route.Route).Methods("POST")
	api.HandleFunc("/quote", h.Route.Quote).Methods("POST")
	api.HandleFunc("/search", h.Route.Search).Methods("GET")
	api.HandleFunc("/platforms", h.Route.Platforms).Methods("GET")

	// Audit log (DATABASE_URL 설정 시에만)
	if h.Runs != nil {
		api.HandleFunc("/runs", h.Runs.ListRuns).Methods("GET")
		api.HandleFunc("/runs/summary", h.Runs.Summary).Methods("GET")
		api.HandleFunc("/runs/{id}", h.Runs.GetRun).Methods("GET")
	}

	if h.Hub != nil {
		r.HandleFunc("/ws", h.Hub.HandleWS).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "thesisrouter-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
