package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

// TreeService manages knowledge trees and their initial topic fan-out.
type TreeService struct {
	db    DB
	llm   TextGenerator
	meter billing.Meterer
}

func NewTreeService(db DB, llm TextGenerator, meter billing.Meterer) *TreeService {
	return &TreeService{db: db, llm: llm, meter: meter}
}

const subtopicsSystemPrompt = `You are a curriculum designer. Given a topic, break it into 5-8 coherent subtopics a learner should work through in order. Each subtopic gets a short title and a one-sentence summary.`

// Create generates the initial fan-out for a topic and persists the tree
// with a root node and one child node per subtopic. The generation is
// gated through the usage meter.
func (s *TreeService) Create(ctx context.Context, userID, topic, description string) (*model.Tree, []model.Node, error) {
	prompt := fmt.Sprintf("Topic: %s", topic)
	if description != "" {
		prompt += fmt.Sprintf("\nContext from the learner: %s", description)
	}

	list, _, err := billing.Gated(ctx, s.meter, userID, s.llm.Model(), func(ctx context.Context) (*subtopicList, int64, error) {
		raw, usage, err := s.llm.GenerateJSON(ctx, subtopicsSystemPrompt, prompt, "subtopics", subtopicsSchema)
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
		return nil, nil, err
	}

	tree := &model.Tree{
		ID:          platform.NewID(),
		UserID:      userID,
		Topic:       topic,
		Description: description,
		Status:      model.StatusActive,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO trees (id, user_id, topic, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		tree.ID, tree.UserID, tree.Topic, tree.Description, tree.Status,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert tree: %w", err)
	}

	root := model.Node{
		ID:            platform.NewID(),
		TreeID:        tree.ID,
		Title:         topic,
		Summary:       description,
		ContentStatus: model.StatusPending,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO nodes (id, tree_id, parent_id, title, summary, position, content_status, created_at, updated_at)
		 VALUES ($1, $2, NULL, $3, $4, 0, $5, now(), now())`,
		root.ID, root.TreeID, root.Title, root.Summary, root.ContentStatus,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert root node: %w", err)
	}

	nodes := []model.Node{root}
	for i, st := range list.Subtopics {
		child := model.Node{
			ID:            platform.NewID(),
			TreeID:        tree.ID,
			ParentID:      &root.ID,
			Title:         st.Title,
			Summary:       st.Summary,
			Position:      i,
			ContentStatus: model.StatusPending,
		}
		_, err = s.db.Exec(ctx,
			`INSERT INTO nodes (id, tree_id, parent_id, title, summary, position, content_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
			child.ID, child.TreeID, child.ParentID, child.Title, child.Summary, child.Position, child.ContentStatus,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("insert node: %w", err)
		}
		nodes = append(nodes, child)
	}

	if err := s.db.QueryRow(ctx, "SELECT created_at, updated_at FROM trees WHERE id = $1", tree.ID).
		Scan(&tree.CreatedAt, &tree.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("get tree timestamps: %w", err)
	}

	return tree, nodes, nil
}

// GetByID retrieves a tree owned by the given user.
func (s *TreeService) GetByID(ctx context.Context, userID, id string) (*model.Tree, error) {
	var t model.Tree
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, topic, description, status, created_at, updated_at
		 FROM trees WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&t.ID, &t.UserID, &t.Topic, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get tree %s: %w", id, notFoundOr(err))
	}
	return &t, nil
}

// ListByUser retrieves the user's trees with cursor-based pagination.
func (s *TreeService) ListByUser(ctx context.Context, userID string, limit int, cursor string) ([]model.Tree, bool, error) {
	query := `SELECT id, user_id, topic, description, status, created_at, updated_at FROM trees WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list trees for user %s: %w", userID, err)
	}
	defer rows.Close()

	var trees []model.Tree
	for rows.Next() {
		var t model.Tree
		if err := rows.Scan(&t.ID, &t.UserID, &t.Topic, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan tree: %w", err)
		}
		trees = append(trees, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate trees: %w", err)
	}

	hasMore := len(trees) > limit
	if hasMore {
		trees = trees[:limit]
	}
	return trees, hasMore, nil
}

// Nodes retrieves all nodes of a tree owned by the given user, ordered
// for deterministic rendering.
func (s *TreeService) Nodes(ctx context.Context, userID, treeID string) ([]model.Node, error) {
	if _, err := s.GetByID(ctx, userID, treeID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, tree_id, parent_id, title, summary, content, position, content_status, created_at, updated_at
		 FROM nodes WHERE tree_id = $1
		 ORDER BY parent_id NULLS FIRST, position, id`, treeID)
	if err != nil {
		return nil, fmt.Errorf("list nodes for tree %s: %w", treeID, err)
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID, &n.TreeID, &n.ParentID, &n.Title, &n.Summary, &n.Content, &n.Position, &n.ContentStatus, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// Delete removes a tree and everything hanging off it (nodes cascade).
func (s *TreeService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM trees WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete tree %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete tree %s: %w", id, ErrNotFound)
	}
	return nil
}
