package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"postboard/internal/models"

	"github.com/gorilla/mux"
)

// ListPosts handles GET /api/v1/posts
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	response, err := h.posts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetPost handles GET /api/v1/posts/{id}
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parsePostID(w, r)
	if !ok {
		return
	}

	response, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// ListPostsByAuthor handles GET /api/v1/authors/{author_id}/posts
func (h *Handlers) ListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := strconv.ParseInt(mux.Vars(r)["author_id"], 10, 64)
	if err != nil || authorID <= 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid author id")
		return
	}

	response, svcErr := h.posts.ListByAuthor(r.Context(), authorID)
	if svcErr != nil {
		h.writeServiceError(w, svcErr)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// CreatePost handles POST /api/v1/posts
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	response, err := h.posts.Create(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, response)
}

// UpdatePost handles PATCH /api/v1/posts/{id}
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parsePostID(w, r)
	if !ok {
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	response, err := h.posts.Update(r.Context(), id, &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// DeletePost handles DELETE /api/v1/posts/{id}
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parsePostID(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) parsePostID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid post id")
		return 0, false
	}
	return id, true
}
