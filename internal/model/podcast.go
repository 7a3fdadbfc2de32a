package model

import "time"

// Podcast is a generated audio discussion of a node's content. Generation
// is asynchronous: rows start pending and a worker moves them to ready or
// failed.
type Podcast struct {
	ID            string    `json:"id"`
	NodeID        string    `json:"node_id"`
	Status        string    `json:"status"`
	StatusMessage *string   `json:"status_message,omitempty"`
	AudioURL      *string   `json:"audio_url,omitempty"`
	Voice         string    `json:"voice"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
