package core

import (
	"context"
	"encoding/json"

	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/search"
)

// TextGenerator is the LLM surface consumed by core services.
// *llm.Client satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, user string) (string, llm.Usage, error)
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema json.RawMessage) (json.RawMessage, llm.Usage, error)
	Model() string
}

// Searcher is the search surface consumed by the resource service.
// *search.WebClient and *search.VideoClient satisfy it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// subtopicsSchema is the structured-output schema for fanning a topic
// into subtopics.
var subtopicsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"subtopics": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"summary": {"type": "string"}
				},
				"required": ["title", "summary"],
				"additionalProperties": false
			}
		}
	},
	"required": ["subtopics"],
	"additionalProperties": false
}`)

type subtopicList struct {
	Subtopics []subtopic `json:"subtopics"`
}

type subtopic struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// quizSchema is the structured-output schema for quiz generation.
var quizSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"question": {"type": "string"},
					"options": {"type": "array", "items": {"type": "string"}},
					"answer_index": {"type": "integer"},
					"explanation": {"type": "string"}
				},
				"required": ["question", "options", "answer_index", "explanation"],
				"additionalProperties": false
			}
		}
	},
	"required": ["questions"],
	"additionalProperties": false
}`)

// flashcardSchema is the structured-output schema for flashcard decks.
var flashcardSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"cards": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"front": {"type": "string"},
					"back": {"type": "string"}
				},
				"required": ["front", "back"],
				"additionalProperties": false
			}
		}
	},
	"required": ["cards"],
	"additionalProperties": false
}`)
