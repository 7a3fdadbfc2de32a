package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/doctree/internal/api/middleware"
	"github.com/edvin/doctree/internal/api/request"
	"github.com/edvin/doctree/internal/api/response"
	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/core"
)

type Chat struct {
	svc    *core.ChatService
	logger zerolog.Logger
}

func NewChat(svc *core.ChatService, logger zerolog.Logger) *Chat {
	return &Chat{svc: svc, logger: logger.With().Str("component", "chat").Logger()}
}

// chatReply is the answer payload for both the HTTP and websocket paths.
type chatReply struct {
	Answer string        `json:"answer,omitempty"`
	Quota  billing.Quota `json:"quota"`
	Error  string        `json:"error,omitempty"`
}

// Ask answers a single question about a node.
func (h *Chat) Ask(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ChatAsk
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, quota, err := h.svc.Ask(r.Context(), middleware.UserID(r.Context()), nodeID, req.Question)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, chatReply{Answer: answer, Quota: quota})
}

// Session upgrades to a websocket and answers questions until the client
// disconnects. Each message is a JSON object with a "question" field and
// each reply carries the answer with the user's quota after metering.
func (h *Chat) Session(w http.ResponseWriter, r *http.Request) {
	nodeID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := middleware.UserID(r.Context())

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through the web UI.
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	for {
		var req request.ChatAsk
		if err := wsjson.Read(r.Context(), ws, &req); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		if req.Question == "" {
			_ = wsjson.Write(r.Context(), ws, chatReply{Error: "question is required"})
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		answer, quota, err := h.svc.Ask(ctx, userID, nodeID, req.Question)
		cancel()

		reply := chatReply{Answer: answer, Quota: quota}
		if err != nil {
			reply.Answer = ""
			reply.Error = err.Error()

			var limitErr *billing.LimitExceededError
			if errors.As(err, &limitErr) {
				reply.Quota = limitErr.Quota
			}
		}
		if err := wsjson.Write(r.Context(), ws, reply); err != nil {
			return
		}
	}
}
