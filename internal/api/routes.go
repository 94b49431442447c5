package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"postboard/internal/admission"
	"postboard/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes for the API. Privilege is bound per
// handler through the admission middleware: reads are public and rate limited
// per client IP, post writes need a member token, and member management needs
// an admin token.
//
// All API routes live on a single subrouter. Splitting them across sibling
// subrouters per privilege level loses the method-mismatch signal in mux, so
// an unsupported method on a known path would 404 instead of 405.
func SetupRoutes(handlers *Handlers, adm *admission.Middleware, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	// Health is exempt from admission so probes cannot burn rate budget.
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	public := adm.Require(admission.PrivilegeNone)
	member := adm.Require(admission.PrivilegeMember)
	admin := adm.Require(admission.PrivilegeAdmin)

	api.Handle("/posts", public(http.HandlerFunc(handlers.ListPosts))).Methods("GET")
	api.Handle("/posts", member(http.HandlerFunc(handlers.CreatePost))).Methods("POST")
	api.Handle("/posts/{id}", public(http.HandlerFunc(handlers.GetPost))).Methods("GET")
	api.Handle("/posts/{id}", member(http.HandlerFunc(handlers.UpdatePost))).Methods("PATCH")
	api.Handle("/posts/{id}", member(http.HandlerFunc(handlers.DeletePost))).Methods("DELETE")
	api.Handle("/authors/{author_id}/posts", public(http.HandlerFunc(handlers.ListPostsByAuthor))).Methods("GET")

	api.Handle("/members", admin(http.HandlerFunc(handlers.ListMembers))).Methods("GET")
	api.Handle("/members", admin(http.HandlerFunc(handlers.CreateMember))).Methods("POST")
	api.Handle("/members/{id}", admin(http.HandlerFunc(handlers.GetMember))).Methods("GET")
	api.Handle("/members/{id}", admin(http.HandlerFunc(handlers.UpdateMember))).Methods("PATCH")
	api.Handle("/members/{id}", admin(http.HandlerFunc(handlers.DeleteMember))).Methods("DELETE")
	api.Handle("/members/{id}/rotate", admin(http.HandlerFunc(handlers.RotateMemberToken))).Methods("POST")

	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		errorResp := models.NewErrorResponse("Method not allowed", models.ErrorCodeInvalidRequest)
		json.NewEncoder(w).Encode(errorResp)
	})
	router.MethodNotAllowedHandler = methodNotAllowed
	api.MethodNotAllowedHandler = methodNotAllowed

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				json.NewEncoder(w).Encode(errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
