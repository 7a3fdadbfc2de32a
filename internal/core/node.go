package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

// NodeService manages individual tree nodes: expansion into child
// subtopics and long-form content generation.
type NodeService struct {
	db    DB
	llm   TextGenerator
	meter billing.Meterer
}

func NewNodeService(db DB, llm TextGenerator, meter billing.Meterer) *NodeService {
	return &NodeService{db: db, llm: llm, meter: meter}
}

const expandSystemPrompt = `You are a curriculum designer. Given a subtopic within a larger subject, break it into 3-6 narrower subtopics. Each gets a short title and a one-sentence summary. Do not repeat the parent topic itself.`

const contentSystemPrompt = `You are a patient technical writer. Write a thorough, well-structured explainer of the given topic in Markdown: an introduction, several sections with headings, concrete examples, and a short recap. Write for a motivated self-learner.`

// GetByID retrieves a node, checking that the owning tree belongs to the
// given user.
func (s *NodeService) GetByID(ctx context.Context, userID, id string) (*model.Node, error) {
	var n model.Node
	err := s.db.QueryRow(ctx,
		`SELECT n.id, n.tree_id, n.parent_id, n.title, n.summary, n.content, n.position, n.content_status, n.created_at, n.updated_at
		 FROM nodes n JOIN trees t ON n.tree_id = t.id
		 WHERE n.id = $1 AND t.user_id = $2`, id, userID,
	).Scan(&n.ID, &n.TreeID, &n.ParentID, &n.Title, &n.Summary, &n.Content, &n.Position, &n.ContentStatus, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, notFoundOr(err))
	}
	return &n, nil
}

// Expand generates child subtopics for a node and persists them. New
// children are appended after any existing ones.
func (s *NodeService) Expand(ctx context.Context, userID, nodeID string) ([]model.Node, error) {
	node, err := s.GetByID(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Subtopic: %s\nSummary: %s", node.Title, node.Summary)
	list, _, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (*subtopicList, int64, error) {
		raw, usage, err := s.llm.GenerateJSON(ctx, expandSystemPrompt, prompt, "subtopics", subtopicsSchema)
		if err != nil {
			return nil, 0, fmt.Errorf("generate subtopics: %w", err)
		}
		var parsed subtopicList
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, 0, fmt.Errorf("parse subtopics: %w", err)
		}
		return &parsed, int64(usage.TotalTokens), nil
	})
	if err != nil {
		return nil, err
	}

	var basePosition int
	err = s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM nodes WHERE parent_id = $1`, nodeID,
	).Scan(&basePosition)
	if err != nil {
		return nil, fmt.Errorf("get next position for node %s: %w", nodeID, err)
	}

	var children []model.Node
	for i, st := range list.Subtopics {
		child := model.Node{
			ID:            platform.NewID(),
			TreeID:        node.TreeID,
			ParentID:      &node.ID,
			Title:         st.Title,
			Summary:       st.Summary,
			Position:      basePosition + i,
			ContentStatus: model.StatusPending,
		}
		_, err = s.db.Exec(ctx,
			`INSERT INTO nodes (id, tree_id, parent_id, title, summary, position, content_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
			child.ID, child.TreeID, child.ParentID, child.Title, child.Summary, child.Position, child.ContentStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("insert node: %w", err)
		}
		children = append(children, child)
	}

	return children, nil
}

// GenerateContent produces long-form document content for a node. The
// node moves through generating to ready; a generation failure records
// the failed status and propagates.
func (s *NodeService) GenerateContent(ctx context.Context, userID, nodeID string) (*model.Node, error) {
	node, err := s.GetByID(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE nodes SET content_status = $1, updated_at = now() WHERE id = $2`,
		model.StatusGenerating, nodeID,
	); err != nil {
		return nil, fmt.Errorf("set node %s generating: %w", nodeID, err)
	}

	prompt := fmt.Sprintf("Topic: %s\nSummary: %s", node.Title, node.Summary)
	content, _, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (string, int64, error) {
		text, usage, err := s.llm.GenerateText(ctx, contentSystemPrompt, prompt)
		if err != nil {
			return "", 0, fmt.Errorf("generate content: %w", err)
		}
		return text, int64(usage.TotalTokens), nil
	})
	if err != nil {
		_, _ = s.db.Exec(ctx,
			`UPDATE nodes SET content_status = $1, updated_at = now() WHERE id = $2`,
			model.StatusFailed, nodeID,
		)
		return nil, err
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE nodes SET content = $1, content_status = $2, updated_at = now() WHERE id = $3`,
		content, model.StatusReady, nodeID,
	); err != nil {
		return nil, fmt.Errorf("store node %s content: %w", nodeID, err)
	}

	return s.GetByID(ctx, userID, nodeID)
}

// UpdateContent stores user-edited content. Edits are not metered.
func (s *NodeService) UpdateContent(ctx context.Context, userID, nodeID, content string) (*model.Node, error) {
	if _, err := s.GetByID(ctx, userID, nodeID); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE nodes SET content = $1, content_status = $2, updated_at = now() WHERE id = $3`,
		content, model.StatusReady, nodeID,
	); err != nil {
		return nil, fmt.Errorf("update node %s content: %w", nodeID, err)
	}

	return s.GetByID(ctx, userID, nodeID)
}
