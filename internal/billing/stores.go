package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/doctree/internal/model"
)

// DB defines the database operations used by the billing stores.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGSubscriptionStore reads subscription rows maintained by the billing
// webhook.
type PGSubscriptionStore struct {
	db DB
}

func NewPGSubscriptionStore(db DB) *PGSubscriptionStore {
	return &PGSubscriptionStore{db: db}
}

// Get returns the user's subscription if it is in a counting status
// (trialing or active), or nil when there is none.
func (s *PGSubscriptionStore) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(ctx,
		`SELECT user_id, plan_id, status, period_start, updated_at
		 FROM subscriptions
		 WHERE user_id = $1 AND status IN ($2, $3)`,
		userID, model.SubStatusTrialing, model.SubStatusActive,
	).Scan(&sub.UserID, &sub.PlanID, &sub.Status, &sub.PeriodStart, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", userID, err)
	}
	return &sub, nil
}

// PGUsageStore persists the per-user credit counter.
type PGUsageStore struct {
	db DB
}

func NewPGUsageStore(db DB) *PGUsageStore {
	return &PGUsageStore{db: db}
}

func (s *PGUsageStore) Get(ctx context.Context, userID string) (*model.UsageRecord, error) {
	var rec model.UsageRecord
	err := s.db.QueryRow(ctx,
		`SELECT user_id, units_consumed, period_anchor FROM usage_records WHERE user_id = $1`,
		userID,
	).Scan(&rec.UserID, &rec.UnitsConsumed, &rec.PeriodAnchor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get usage record %s: %w", userID, err)
	}
	return &rec, nil
}

// Create inserts a zeroed record anchored at now. A concurrent insert for
// the same user is harmless: the conflict is ignored and the winning row
// is read back.
func (s *PGUsageStore) Create(ctx context.Context, userID string) (*model.UsageRecord, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_records (user_id, units_consumed, period_anchor)
		 VALUES ($1, 0, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert usage record %s: %w", userID, err)
	}

	rec, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("usage record %s missing after insert", userID)
	}
	return rec, nil
}

func (s *PGUsageStore) Reset(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE usage_records SET units_consumed = 0, period_anchor = now() WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("reset usage record %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("usage record %s not found", userID)
	}
	return nil
}

// AtomicIncrement adds amount to the counter in a single server-side
// update and returns the post-increment total. Concurrent increments for
// the same user both land; neither is lost.
func (s *PGUsageStore) AtomicIncrement(ctx context.Context, userID string, amount int64) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx,
		`UPDATE usage_records SET units_consumed = units_consumed + $2
		 WHERE user_id = $1
		 RETURNING units_consumed`,
		userID, amount,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment usage record %s: %w", userID, err)
	}
	return total, nil
}
