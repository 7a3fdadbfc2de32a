package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/doctree/internal/model"
)

// SubscriptionService maintains subscription rows from payment-platform
// webhook events and serves them for display. Limit enforcement reads
// subscriptions through the billing store instead.
type SubscriptionService struct {
	db DB
}

func NewSubscriptionService(db DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// GetForUser retrieves the user's subscription regardless of status, or
// nil when none exists.
func (s *SubscriptionService) GetForUser(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT user_id, plan_id, status, period_start, updated_at
		 FROM subscriptions WHERE user_id = $1`, userID,
	).Scan(&sub.UserID, &sub.PlanID, &sub.Status, &sub.PeriodStart, &sub.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription for %s: %w", userID, err)
	}
	return &sub, nil
}

// Upsert writes the subscription state carried by a webhook event. The
// payment platform is the source of truth; whatever it says wins.
func (s *SubscriptionService) Upsert(ctx context.Context, userID, planID, status string, periodStart time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (user_id, plan_id, status, period_start, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET plan_id = EXCLUDED.plan_id, status = EXCLUDED.status,
		     period_start = EXCLUDED.period_start, updated_at = now()`,
		userID, planID, status, periodStart,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for %s: %w", userID, err)
	}
	return nil
}

// MarkCanceled flags the user's subscription as canceled after a
// deletion event. The row is kept for history; the billing store stops
// counting it.
func (s *SubscriptionService) MarkCanceled(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = now() WHERE user_id = $2`,
		model.SubStatusCanceled, userID,
	)
	if err != nil {
		return fmt.Errorf("mark subscription canceled for %s: %w", userID, err)
	}
	return nil
}

// UserIDByStripeCustomer resolves the internal user for a Stripe
// customer id carried on webhook events.
func (s *SubscriptionService) UserIDByStripeCustomer(ctx context.Context, customerID string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE stripe_customer_id = $1`, customerID,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("resolve user for customer %s: %w", customerID, notFoundOr(err))
	}
	return userID, nil
}
