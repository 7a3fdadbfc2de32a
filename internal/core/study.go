package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

// QuizService generates and retrieves quizzes for nodes.
type QuizService struct {
	db    DB
	llm   TextGenerator
	meter billing.Meterer
}

func NewQuizService(db DB, llm TextGenerator, meter billing.Meterer) *QuizService {
	return &QuizService{db: db, llm: llm, meter: meter}
}

const quizSystemPrompt = `You are an examiner. Write 5 multiple-choice questions that test understanding of the given material. Each question has 4 options, exactly one correct, with a one-sentence explanation of the answer.`

// Generate creates a quiz from a node's content (falling back to its
// title and summary when no content has been generated yet).
func (s *QuizService) Generate(ctx context.Context, userID, nodeID string) (*model.Quiz, error) {
	prompt, err := nodeMaterial(ctx, s.db, userID, nodeID)
	if err != nil {
		return nil, err
	}

	questions, _, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (json.RawMessage, int64, error) {
		raw, usage, err := s.llm.GenerateJSON(ctx, quizSystemPrompt, prompt, "quiz", quizSchema)
		if err != nil {
			return nil, 0, fmt.Errorf("generate quiz: %w", err)
		}
		var parsed struct {
			Questions json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, 0, fmt.Errorf("parse quiz: %w", err)
		}
		return parsed.Questions, int64(usage.TotalTokens), nil
	})
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		ID:        platform.NewID(),
		NodeID:    nodeID,
		Questions: questions,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO quizzes (id, node_id, questions, created_at) VALUES ($1, $2, $3, now())`,
		quiz.ID, quiz.NodeID, quiz.Questions,
	)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}

	if err := s.db.QueryRow(ctx, "SELECT created_at FROM quizzes WHERE id = $1", quiz.ID).Scan(&quiz.CreatedAt); err != nil {
		return nil, fmt.Errorf("get quiz created_at: %w", err)
	}
	return quiz, nil
}

// GetByID retrieves a quiz, checking tree ownership.
func (s *QuizService) GetByID(ctx context.Context, userID, id string) (*model.Quiz, error) {
	var q model.Quiz
	err := s.db.QueryRow(ctx,
		`SELECT q.id, q.node_id, q.questions, q.created_at
		 FROM quizzes q
		 JOIN nodes n ON q.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE q.id = $1 AND t.user_id = $2`, id, userID,
	).Scan(&q.ID, &q.NodeID, &q.Questions, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get quiz %s: %w", id, notFoundOr(err))
	}
	return &q, nil
}

// ListByNode retrieves a node's quizzes, newest first.
func (s *QuizService) ListByNode(ctx context.Context, userID, nodeID string) ([]model.Quiz, error) {
	rows, err := s.db.Query(ctx,
		`SELECT q.id, q.node_id, q.questions, q.created_at
		 FROM quizzes q
		 JOIN nodes n ON q.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE q.node_id = $1 AND t.user_id = $2
		 ORDER BY q.created_at DESC`, nodeID, userID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes for node %s: %w", nodeID, err)
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.NodeID, &q.Questions, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return quizzes, nil
}

// FlashcardService generates and retrieves flashcard decks for nodes.
type FlashcardService struct {
	db    DB
	llm   TextGenerator
	meter billing.Meterer
}

func NewFlashcardService(db DB, llm TextGenerator, meter billing.Meterer) *FlashcardService {
	return &FlashcardService{db: db, llm: llm, meter: meter}
}

const flashcardSystemPrompt = `You are a study coach. Extract the 8-12 most important facts or definitions from the given material as flashcards: a short front (term or question) and a concise back (definition or answer).`

// Generate creates a flashcard deck from a node's content.
func (s *FlashcardService) Generate(ctx context.Context, userID, nodeID string) (*model.FlashcardDeck, error) {
	prompt, err := nodeMaterial(ctx, s.db, userID, nodeID)
	if err != nil {
		return nil, err
	}

	cards, _, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (json.RawMessage, int64, error) {
		raw, usage, err := s.llm.GenerateJSON(ctx, flashcardSystemPrompt, prompt, "flashcards", flashcardSchema)
		if err != nil {
			return nil, 0, fmt.Errorf("generate flashcards: %w", err)
		}
		var parsed struct {
			Cards json.RawMessage `json:"cards"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, 0, fmt.Errorf("parse flashcards: %w", err)
		}
		return parsed.Cards, int64(usage.TotalTokens), nil
	})
	if err != nil {
		return nil, err
	}

	deck := &model.FlashcardDeck{
		ID:     platform.NewID(),
		NodeID: nodeID,
		Cards:  cards,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO flashcard_decks (id, node_id, cards, created_at) VALUES ($1, $2, $3, now())`,
		deck.ID, deck.NodeID, deck.Cards,
	)
	if err != nil {
		return nil, fmt.Errorf("insert flashcard deck: %w", err)
	}

	if err := s.db.QueryRow(ctx, "SELECT created_at FROM flashcard_decks WHERE id = $1", deck.ID).Scan(&deck.CreatedAt); err != nil {
		return nil, fmt.Errorf("get flashcard deck created_at: %w", err)
	}
	return deck, nil
}

// GetByID retrieves a flashcard deck, checking tree ownership.
func (s *FlashcardService) GetByID(ctx context.Context, userID, id string) (*model.FlashcardDeck, error) {
	var d model.FlashcardDeck
	err := s.db.QueryRow(ctx,
		`SELECT f.id, f.node_id, f.cards, f.created_at
		 FROM flashcard_decks f
		 JOIN nodes n ON f.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE f.id = $1 AND t.user_id = $2`, id, userID,
	).Scan(&d.ID, &d.NodeID, &d.Cards, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get flashcard deck %s: %w", id, notFoundOr(err))
	}
	return &d, nil
}

// ListByNode retrieves a node's flashcard decks, newest first.
func (s *FlashcardService) ListByNode(ctx context.Context, userID, nodeID string) ([]model.FlashcardDeck, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.node_id, f.cards, f.created_at
		 FROM flashcard_decks f
		 JOIN nodes n ON f.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE f.node_id = $1 AND t.user_id = $2
		 ORDER BY f.created_at DESC`, nodeID, userID)
	if err != nil {
		return nil, fmt.Errorf("list flashcard decks for node %s: %w", nodeID, err)
	}
	defer rows.Close()

	var decks []model.FlashcardDeck
	for rows.Next() {
		var d model.FlashcardDeck
		if err := rows.Scan(&d.ID, &d.NodeID, &d.Cards, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flashcard deck: %w", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flashcard decks: %w", err)
	}
	return decks, nil
}

// nodeMaterial builds the prompt material for a node: its generated
// content when available, otherwise title and summary.
func nodeMaterial(ctx context.Context, db DB, userID, nodeID string) (string, error) {
	var title, summary string
	var content *string
	err := db.QueryRow(ctx,
		`SELECT n.title, n.summary, n.content
		 FROM nodes n JOIN trees t ON n.tree_id = t.id
		 WHERE n.id = $1 AND t.user_id = $2`, nodeID, userID,
	).Scan(&title, &summary, &content)
	if err != nil {
		return "", fmt.Errorf("get node %s: %w", nodeID, notFoundOr(err))
	}

	if content != nil && *content != "" {
		return fmt.Sprintf("Topic: %s\n\n%s", title, *content), nil
	}
	return fmt.Sprintf("Topic: %s\nSummary: %s", title, summary), nil
}
