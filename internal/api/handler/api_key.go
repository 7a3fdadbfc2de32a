package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/api/request"
	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/core"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// Create makes a new API key. The raw key appears in this response only.
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), middleware.UserID(r.Context()), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"api_key": key,
		"key":     rawKey,
	})
}

// List returns the user's API keys.
func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	keys, hasMore, err := h.svc.List(r.Context(), middleware.UserID(r.Context()), p.Limit, p.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

// Revoke disables an API key.
func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
