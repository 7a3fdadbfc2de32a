package core

import (
	"context"
	"fmt"

	"github.com/edvin/doctree/internal/billing"
)

// ChatService answers one-shot questions about a node's material.
// Conversations are not persisted; each question is answered against the
// node's current content.
type ChatService struct {
	db    DB
	llm   TextGenerator
	meter billing.Meterer
}

func NewChatService(db DB, llm TextGenerator, meter billing.Meterer) *ChatService {
	return &ChatService{db: db, llm: llm, meter: meter}
}

const chatSystemPrompt = `You are a tutor. Answer the learner's question using the provided material. When the material doesn't cover the question, say so and answer from general knowledge, clearly marked as such. Keep answers focused.`

// Ask answers a question about a node. The generation is gated through
// the usage meter.
func (s *ChatService) Ask(ctx context.Context, userID, nodeID, question string) (string, billing.Quota, error) {
	material, err := nodeMaterial(ctx, s.db, userID, nodeID)
	if err != nil {
		return "", billing.Quota{}, err
	}

	prompt := fmt.Sprintf("Material:\n%s\n\nQuestion: %s", material, question)
	answer, quota, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (string, int64, error) {
		text, usage, err := s.llm.GenerateText(ctx, chatSystemPrompt, prompt)
		if err != nil {
			return "", 0, fmt.Errorf("generate answer: %w", err)
		}
		return text, int64(usage.TotalTokens), nil
	})
	if err != nil {
		return "", quota, err
	}

	return answer, quota, nil
}
