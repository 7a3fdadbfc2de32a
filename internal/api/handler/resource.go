package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/api/request"
	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/core"
	"github.com/edvin/doctree/internal/model"
)

type Resource struct {
	svc *core.ResourceService
}

func NewResource(svc *core.ResourceService) *Resource {
	return &Resource{svc: svc}
}

// Refresh fetches fresh resources for a node, replacing stored ones.
func (h *Resource) Refresh(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resources, err := h.svc.Fetch(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	response.WriteJSON(w, http.StatusOK, resources)
}

// ListByNode returns a node's stored resources.
func (h *Resource) ListByNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resources, err := h.svc.ListByNode(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	response.WriteJSON(w, http.StatusOK, resources)
}
