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

// defaultVoice is used when the request does not pick one.
const defaultVoice = "alloy"

type Podcast struct {
	svc *core.PodcastService
}

func NewPodcast(svc *core.PodcastService) *Podcast {
	return &Podcast{svc: svc}
}

// Create starts podcast generation for a node.
func (h *Podcast) Create(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreatePodcast
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Voice == "" {
		req.Voice = defaultVoice
	}

	podcast, err := h.svc.Create(r.Context(), middleware.UserID(r.Context()), nodeID, req.Voice)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, podcast)
}

// Get returns a single podcast, including its generation status.
func (h *Podcast) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	podcast, err := h.svc.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, podcast)
}

// ListByNode returns a node's podcasts.
func (h *Podcast) ListByNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	podcasts, err := h.svc.ListByNode(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if podcasts == nil {
		podcasts = []model.Podcast{}
	}
	response.WriteJSON(w, http.StatusOK, podcasts)
}

// Delete removes a podcast.
func (h *Podcast) Delete(w http.ResponseWriter, r *http.Request) {
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
