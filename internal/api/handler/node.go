package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/api/request"
	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/core"
)

type Node struct {
	svc *core.NodeService
}

func NewNode(svc *core.NodeService) *Node {
	return &Node{svc: svc}
}

// Get returns a single node.
func (h *Node) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.svc.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, node)
}

// Expand generates child subtopics for a node.
func (h *Node) Expand(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	children, err := h.svc.Expand(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, children)
}

// GenerateContent produces long-form content for a node.
func (h *Node) GenerateContent(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.svc.GenerateContent(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, node)
}

// UpdateContent stores user-edited content for a node.
func (h *Node) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateNodeContent
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.svc.UpdateContent(r.Context(), middleware.UserID(r.Context()), id, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, node)
}
