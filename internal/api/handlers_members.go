package api

import (
	"encoding/json"
	"net/http"

	"postboard/internal/models"

	"github.com/gorilla/mux"
)

// ListMembers handles GET /api/v1/members
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	response, err := h.members.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetMember handles GET /api/v1/members/{id}
func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	response, err := h.members.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// CreateMember handles POST /api/v1/members. The response carries the raw
// bearer token; it is not retrievable afterwards.
func (h *Handlers) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	response, err := h.members.Create(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, response)
}

// UpdateMember handles PATCH /api/v1/members/{id}
func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	response, err := h.members.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// DeleteMember handles DELETE /api/v1/members/{id}
func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateMemberToken handles POST /api/v1/members/{id}/rotate. The old token
// stops authenticating immediately; the new one is in the response only.
func (h *Handlers) RotateMemberToken(w http.ResponseWriter, r *http.Request) {
	response, err := h.members.RotateToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}
