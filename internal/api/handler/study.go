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

type Quiz struct {
	svc *core.QuizService
}

func NewQuiz(svc *core.QuizService) *Quiz {
	return &Quiz{svc: svc}
}

// Generate creates a new quiz for a node.
func (h *Quiz) Generate(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	quiz, err := h.svc.Generate(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, quiz)
}

// Get returns a single quiz.
func (h *Quiz) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	quiz, err := h.svc.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, quiz)
}

// ListByNode returns a node's quizzes.
func (h *Quiz) ListByNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	quizzes, err := h.svc.ListByNode(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	response.WriteJSON(w, http.StatusOK, quizzes)
}

type Flashcard struct {
	svc *core.FlashcardService
}

func NewFlashcard(svc *core.FlashcardService) *Flashcard {
	return &Flashcard{svc: svc}
}

// Generate creates a new flashcard deck for a node.
func (h *Flashcard) Generate(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	deck, err := h.svc.Generate(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, deck)
}

// Get returns a single flashcard deck.
func (h *Flashcard) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	deck, err := h.svc.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, deck)
}

// ListByNode returns a node's flashcard decks.
func (h *Flashcard) ListByNode(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	decks, err := h.svc.ListByNode(r.Context(), middleware.UserID(r.Context()), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if decks == nil {
		decks = []model.FlashcardDeck{}
	}
	response.WriteJSON(w, http.StatusOK, decks)
}
