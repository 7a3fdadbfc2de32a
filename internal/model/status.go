package model

// Lifecycle statuses shared by generated resources.
const (
	StatusPending    = "pending"
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusFailed     = "failed"

	StatusActive   = "active"
	StatusDeleting = "deleting"
)

// Subscription statuses that count as having a paid plan.
const (
	SubStatusTrialing = "trialing"
	SubStatusActive   = "active"
	SubStatusCanceled = "canceled"
	SubStatusPastDue  = "past_due"
)
