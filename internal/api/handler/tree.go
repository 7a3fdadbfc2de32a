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

type Tree struct {
	svc *core.TreeService
}

func NewTree(svc *core.TreeService) *Tree {
	return &Tree{svc: svc}
}

// Create generates a new knowledge tree for a topic.
func (h *Tree) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTree
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tree, nodes, err := h.svc.Create(r.Context(), middleware.UserID(r.Context()), req.Topic, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"tree":  tree,
		"nodes": nodes,
	})
}

// List returns the user's trees.
func (h *Tree) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	trees, hasMore, err := h.svc.ListByUser(r.Context(), middleware.UserID(r.Context()), p.Limit, p.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(trees) > 0 {
		nextCursor = trees[len(trees)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, trees, nextCursor, hasMore)
}

// Get returns a single tree.
func (h *Tree) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tree, err := h.svc.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, tree)
}

// Nodes returns all nodes of a tree.
func (h *Tree) Nodes(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := h.svc.Nodes(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	response.WriteJSON(w, http.StatusOK, nodes)
}

// Delete removes a tree and everything under it.
func (h *Tree) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
