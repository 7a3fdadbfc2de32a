package model

import (
	"encoding/json"
	"time"
)

// Quiz holds generated multiple-choice questions for a node. Questions is
// the raw JSON array produced by the structured-output generation.
type Quiz struct {
	ID        string          `json:"id"`
	NodeID    string          `json:"node_id"`
	Questions json.RawMessage `json:"questions"`
	CreatedAt time.Time       `json:"created_at"`
}

// QuizQuestion is the element shape inside Quiz.Questions.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// FlashcardDeck holds generated flashcards for a node.
type FlashcardDeck struct {
	ID        string          `json:"id"`
	NodeID    string          `json:"node_id"`
	Cards     json.RawMessage `json:"cards"`
	CreatedAt time.Time       `json:"created_at"`
}

// Flashcard is the element shape inside FlashcardDeck.Cards.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
