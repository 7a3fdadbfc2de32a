package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
	"github.com/edvin/doctree/internal/search"
)

// resourcesPerKind caps how many hits of each kind are stored per fetch.
const resourcesPerKind = 5

// ResourceService fetches web-sourced supplementary resources for nodes.
type ResourceService struct {
	db    DB
	web   Searcher
	video Searcher
}

func NewResourceService(db DB, web, video Searcher) *ResourceService {
	return &ResourceService{db: db, web: web, video: video}
}

// Fetch queries all four resource kinds concurrently, replaces the
// node's stored resources with the hits, and returns them. Search
// failures for one kind fail the whole fetch; nothing is partially
// replaced.
func (s *ResourceService) Fetch(ctx context.Context, userID, nodeID string) ([]model.Resource, error) {
	var title string
	err := s.db.QueryRow(ctx,
		`SELECT n.title FROM nodes n JOIN trees t ON n.tree_id = t.id
		 WHERE n.id = $1 AND t.user_id = $2`, nodeID, userID,
	).Scan(&title)
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", nodeID, notFoundOr(err))
	}

	kinds := []struct {
		kind     string
		searcher Searcher
		query    string
	}{
		{model.ResourceArticle, s.web, title},
		{model.ResourceVideo, s.video, title},
		{model.ResourceBook, s.web, title + " book"},
		{model.ResourceExpert, s.web, title + " expert researcher"},
	}

	hits := make([][]search.Result, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			results, err := k.searcher.Search(gctx, k.query, resourcesPerKind)
			if err != nil {
				return fmt.Errorf("search %s resources: %w", k.kind, err)
			}
			hits[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM resources WHERE node_id = $1", nodeID); err != nil {
		return nil, fmt.Errorf("clear resources for node %s: %w", nodeID, err)
	}

	var resources []model.Resource
	for i, k := range kinds {
		for _, hit := range hits[i] {
			r := model.Resource{
				ID:          platform.NewID(),
				NodeID:      nodeID,
				Kind:        k.kind,
				Title:       hit.Title,
				URL:         hit.URL,
				Description: hit.Description,
			}
			_, err := s.db.Exec(ctx,
				`INSERT INTO resources (id, node_id, kind, title, url, description, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, now())`,
				r.ID, r.NodeID, r.Kind, r.Title, r.URL, r.Description,
			)
			if err != nil {
				return nil, fmt.Errorf("insert resource: %w", err)
			}
			resources = append(resources, r)
		}
	}

	return resources, nil
}

// ListByNode retrieves a node's stored resources grouped by kind order.
func (s *ResourceService) ListByNode(ctx context.Context, userID, nodeID string) ([]model.Resource, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.node_id, r.kind, r.title, r.url, r.description, r.created_at
		 FROM resources r
		 JOIN nodes n ON r.node_id = n.id
		 JOIN trees t ON n.tree_id = t.id
		 WHERE r.node_id = $1 AND t.user_id = $2
		 ORDER BY r.kind, r.created_at`, nodeID, userID)
	if err != nil {
		return nil, fmt.Errorf("list resources for node %s: %w", nodeID, err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(&r.ID, &r.NodeID, &r.Kind, &r.Title, &r.URL, &r.Description, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}
