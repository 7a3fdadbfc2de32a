package model

import "time"

// Resource kinds.
const (
	ResourceArticle = "article"
	ResourceVideo   = "video"
	ResourceBook    = "book"
	ResourceExpert  = "expert"
)

// Resource is a web-sourced supplementary link attached to a node.
type Resource struct {
	ID          string    `json:"id"`
	NodeID      string    `json:"node_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
