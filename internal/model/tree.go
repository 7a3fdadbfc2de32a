package model

import "time"

// Tree is a knowledge tree rooted at a topic. Its nodes hang off a single
// root node created together with the tree.
type Tree struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Node is a topic within a tree. Content is generated lazily and may be
// absent; ContentStatus tracks its generation lifecycle.
type Node struct {
	ID            string    `json:"id"`
	TreeID        string    `json:"tree_id"`
	ParentID      *string   `json:"parent_id,omitempty"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Content       *string   `json:"content,omitempty"`
	Position      int       `json:"position"`
	ContentStatus string    `json:"content_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
