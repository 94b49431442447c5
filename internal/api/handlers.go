// Package api contains the HTTP handlers and routing for the postboard
// service. Authentication, privilege gating, and rate admission are applied
// per route group by the admission middleware; handlers only translate
// between HTTP and the domain services.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"postboard/internal/admission"
	"postboard/internal/members"
	"postboard/internal/models"
	"postboard/internal/posts"
	"postboard/internal/storage"
	"postboard/internal/version"
)

// Handlers contains HTTP handlers for the postboard API
type Handlers struct {
	posts    *posts.Service
	members  *members.Service
	storage  storage.Storage
	counters admission.CounterStore
}

// NewHandlers creates a new handlers instance. counters may be nil when no
// rate counter store is wired, in which case health omits that component.
func NewHandlers(postsService *posts.Service, membersService *members.Service, store storage.Storage, counters admission.CounterStore) *Handlers {
	return &Handlers{
		posts:    postsService,
		members:  membersService,
		storage:  store,
		counters: counters,
	}
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version

	if err := h.storage.Ping(r.Context()); err != nil {
		response.Status = models.StatusDegraded
		response.AddComponent("storage", models.StatusUnhealthy, err.Error())
	} else {
		response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
	}

	if h.counters != nil {
		if err := h.counters.Ping(r.Context()); err != nil {
			response.Status = models.StatusDegraded
			response.AddComponent("rate_store", models.StatusUnhealthy, err.Error())
		} else {
			response.AddComponent("rate_store", models.StatusHealthy, "Rate counter store is operational")
		}
	}

	response.AddComponent("api", models.StatusHealthy, "API is operational")

	status := http.StatusOK
	if response.Status != models.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSONResponse(w, status, response)
}

// writeJSONResponse writes a JSON response with the given status code
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written, so just note the failure.
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}

// writeServiceError maps a domain service error onto the HTTP response.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *posts.ServiceError:
		h.writeErrorResponse(w, e.StatusCode, e.Code, e.Message)
	case *members.ServiceError:
		h.writeErrorResponse(w, e.StatusCode, e.Code, e.Message)
	default:
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
	}
}
