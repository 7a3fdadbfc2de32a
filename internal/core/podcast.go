package core

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

const taskQueue = "doctree-tasks"

// PodcastService manages podcast rows and dispatches their generation to
// the worker. Generation itself (script, speech, upload) happens in the
// workflow; this layer only gates admission and tracks state.
type PodcastService struct {
	db    DB
	tc    temporalclient.Client
	meter billing.Meterer
}

func NewPodcastService(db DB, tc temporalclient.Client, meter billing.Meterer) *PodcastService {
	return &PodcastService{db: db, tc: tc, meter: meter}
}

// Create inserts a pending podcast for a node and starts the generation
// workflow. A zero-unit pre-flight check rejects users already over
// their cap before any expensive work is queued.
func (s *PodcastService) Create(ctx context.Context, userID, nodeID, voice string) (*model.Podcast, error) {
	if _, err := s.GetNodeOwner(ctx, userID, nodeID); err != nil {
		return nil, err
	}

	if _, err := s.meter.CheckAndConsume(ctx, userID, 0, ""); err != nil {
		return nil, err
	}

	p := &model.Podcast{
		ID:     platform.NewID(),
		NodeID: nodeID,
		Status: model.StatusPending,
		Voice:  voice,
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO podcasts (id, node_id, status, voice, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())`,
		p.ID, p.NodeID, p.Status, p.Voice,
	)
	if err != nil {
		return nil, fmt.Errorf("insert podcast: %w", err)
	}

	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("podcast-%s", p.ID),
		TaskQueue: taskQueue,
	}, "GeneratePodcastWorkflow", p.ID)
	if err != nil {
		return nil, fmt.Errorf("start GeneratePodcastWorkflow: %w", err)
	}

	if err := s.db.QueryRow(ctx, "SELECT created_at, updated_at FROM podcasts WHERE id = $1", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get podcast timestamps: %w", err)
	}
	return p, nil
}

// GetByID retrieves a podcast, checking tree ownership.
func (s *PodcastService) GetByID(ctx context.Context, userID, id string) (*model.Podcast, error) {
	var p model.Podcast
	err := s.db.QueryRow(ctx,
		`SELECT p.id, p.node_id, p.status, p.status_message, p.audio_url, p.voice, p.created_at, p.updated_at
		 FROM podcasts p
		 JOIN nodes n ON p.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE p.id = $1 AND t.user_id = $2`, id, userID,
	).Scan(&p.ID, &p.NodeID, &p.Status, &p.StatusMessage, &p.AudioURL, &p.Voice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get podcast %s: %w", id, notFoundOr(err))
	}
	return &p, nil
}

// ListByNode retrieves a node's podcasts, newest first.
func (s *PodcastService) ListByNode(ctx context.Context, userID, nodeID string) ([]model.Podcast, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.node_id, p.status, p.status_message, p.audio_url, p.voice, p.created_at, p.updated_at
		 FROM podcasts p
		 JOIN nodes n ON p.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE p.node_id = $1 AND t.user_id = $2
		 ORDER BY p.created_at DESC`, nodeID, userID)
	if err != nil {
		return nil, fmt.Errorf("list podcasts for node %s: %w", nodeID, err)
	}
	defer rows.Close()

	var podcasts []model.Podcast
	for rows.Next() {
		var p model.Podcast
		if err := rows.Scan(&p.ID, &p.NodeID, &p.Status, &p.StatusMessage, &p.AudioURL, &p.Voice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan podcast: %w", err)
		}
		podcasts = append(podcasts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate podcasts: %w", err)
	}
	return podcasts, nil
}

// Delete removes a podcast row. The audio object, if any, is left for
// bucket lifecycle rules to expire.
func (s *PodcastService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM podcasts p
		 USING nodes n, trees t
		 WHERE p.id = $1 AND p.node_id = n.id AND n.tree_id = t.id AND t.user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete podcast %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete podcast %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetNodeOwner resolves and verifies the owning user of a node.
func (s *PodcastService) GetNodeOwner(ctx context.Context, userID, nodeID string) (string, error) {
	var owner string
	err := s.db.QueryRow(ctx,
		`SELECT t.user_id FROM nodes n JOIN trees t ON n.tree_id = t.id WHERE n.id = $1`, nodeID,
	).Scan(&owner)
	if err != nil {
		return "", fmt.Errorf("resolve node %s owner: %w", nodeID, notFoundOr(err))
	}
	if owner != userID {
		return "", fmt.Errorf("resolve node %s owner: %w", nodeID, ErrNotFound)
	}
	return owner, nil
}
