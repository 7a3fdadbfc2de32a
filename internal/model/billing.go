package model

import "time"

// Subscription mirrors the payment platform's view of a user's plan. Rows
// are written only by the billing webhook; everything else reads them.
type Subscription struct {
	UserID      string    `json:"user_id"`
	PlanID      string    `json:"plan_id"`
	Status      string    `json:"status"`
	PeriodStart time.Time `json:"period_start"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UsageRecord is the per-user credit counter. UnitsConsumed only grows
// between resets; PeriodAnchor marks the start of the current counting
// window.
type UsageRecord struct {
	UserID        string    `json:"user_id"`
	UnitsConsumed int64     `json:"units_consumed"`
	PeriodAnchor  time.Time `json:"period_anchor"`
}
