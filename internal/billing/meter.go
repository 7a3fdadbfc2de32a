package billing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/edvin/doctree/internal/config"
	"github.com/edvin/doctree/internal/model"
)

// freeWindow is the rolling counting window for users without a paid
// subscription. Paid users roll over when the payment platform advances
// their billing period instead.
const freeWindow = 30 * 24 * time.Hour

// SubscriptionStore looks up a user's active paid subscription. Get
// returns (nil, nil) when the user has no subscription in a counting
// status (trialing or active).
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*model.Subscription, error)
}

// UsageStore is the per-user persistent credit counter. Get returns
// (nil, nil) when no record exists yet. AtomicIncrement must be a single
// server-side increment and returns the post-increment total.
type UsageStore interface {
	Get(ctx context.Context, userID string) (*model.UsageRecord, error)
	Create(ctx context.Context, userID string) (*model.UsageRecord, error)
	Reset(ctx context.Context, userID string) error
	AtomicIncrement(ctx context.Context, userID string, amount int64) (int64, error)
}

// Quota is the metering result returned to callers.
type Quota struct {
	ConsumedTotal int64     `json:"consumed_total"`
	Limit         int64     `json:"limit"`
	NextResetAt   time.Time `json:"next_reset_at"`
}

// LimitExceededError signals that usage is at or over the plan cap. The
// triggering increment, if any, has already been persisted: real provider
// cost is never silently dropped, so the counter may overshoot the cap by
// up to one call's worth of units.
type LimitExceededError struct {
	Quota Quota
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("usage limit exceeded: %d of %d credits used", e.Quota.ConsumedTotal, e.Quota.Limit)
}

// Meter converts native units into weighted credits, enforces plan
// limits, and persists consumption. Every call re-fetches subscription
// and usage state; concurrency safety for the counter relies entirely on
// the store's atomic increment.
type Meter struct {
	subs    SubscriptionStore
	usage   UsageStore
	pricing config.Pricing
	now     func() time.Time
}

func NewMeter(subs SubscriptionStore, usage UsageStore, pricing config.Pricing) *Meter {
	return &Meter{
		subs:    subs,
		usage:   usage,
		pricing: pricing,
		now:     time.Now,
	}
}

// CheckAndConsume weighs rawUnits by the model's multiplier, applies any
// pending period rollover, persists the increment, and checks the result
// against the user's plan cap.
//
// A call with rawUnits == 0 is a pure pre-flight gate: it never mutates
// the counter but fails when the user is already at or over the cap.
// For consuming calls the comparison happens after the increment is
// persisted; an over-cap result fails with *LimitExceededError while the
// overage stays on the counter, so the current operation's result must be
// withheld and the next call is blocked.
func (m *Meter) CheckAndConsume(ctx context.Context, userID string, rawUnits int64, modelID string) (Quota, error) {
	if userID == "" {
		return Quota{}, fmt.Errorf("check and consume: user id is required")
	}
	if rawUnits < 0 {
		return Quota{}, fmt.Errorf("check and consume: raw units must be >= 0, got %d", rawUnits)
	}

	weighted := m.weigh(rawUnits, modelID)

	sub, err := m.subs.Get(ctx, userID)
	if err != nil {
		return Quota{}, fmt.Errorf("get subscription for %s: %w", userID, err)
	}

	usage, err := m.usage.Get(ctx, userID)
	if err != nil {
		return Quota{}, fmt.Errorf("get usage for %s: %w", userID, err)
	}
	if usage == nil {
		usage, err = m.usage.Create(ctx, userID)
		if err != nil {
			return Quota{}, fmt.Errorf("create usage for %s: %w", userID, err)
		}
	}

	now := m.now()
	if rolledOver(sub, usage, now) {
		if err := m.usage.Reset(ctx, userID); err != nil {
			return Quota{}, fmt.Errorf("reset usage for %s: %w", userID, err)
		}
		usage.UnitsConsumed = 0
		usage.PeriodAnchor = now
	}

	total := usage.UnitsConsumed
	if weighted > 0 {
		total, err = m.usage.AtomicIncrement(ctx, userID, weighted)
		if err != nil {
			return Quota{}, fmt.Errorf("increment usage for %s: %w", userID, err)
		}
	}

	q := Quota{
		ConsumedTotal: total,
		Limit:         m.limitFor(sub),
		NextResetAt:   nextResetAt(sub, usage),
	}

	// Consuming calls fail strictly over the cap (landing exactly on it
	// succeeds); the zero-unit gate fails already at the cap, since any
	// real consumption after it would be over.
	if total > q.Limit || (weighted == 0 && total >= q.Limit) {
		return q, &LimitExceededError{Quota: q}
	}

	return q, nil
}

// Quota reports the user's current consumption, cap, and next reset
// without mutating anything. A rollover that has not been applied yet is
// reported as if it had happened.
func (m *Meter) Quota(ctx context.Context, userID string) (Quota, error) {
	if userID == "" {
		return Quota{}, fmt.Errorf("quota: user id is required")
	}

	sub, err := m.subs.Get(ctx, userID)
	if err != nil {
		return Quota{}, fmt.Errorf("get subscription for %s: %w", userID, err)
	}

	usage, err := m.usage.Get(ctx, userID)
	if err != nil {
		return Quota{}, fmt.Errorf("get usage for %s: %w", userID, err)
	}

	now := m.now()
	if usage == nil {
		usage = &model.UsageRecord{UserID: userID, PeriodAnchor: now}
	} else if rolledOver(sub, usage, now) {
		usage = &model.UsageRecord{UserID: userID, PeriodAnchor: now}
	}

	return Quota{
		ConsumedTotal: usage.UnitsConsumed,
		Limit:         m.limitFor(sub),
		NextResetAt:   nextResetAt(sub, usage),
	}, nil
}

// weigh converts native units into credits using the model's multiplier.
// Models absent from the table weigh 1.
func (m *Meter) weigh(rawUnits int64, modelID string) int64 {
	mult, ok := m.pricing.ModelMultipliers[modelID]
	if !ok || mult <= 0 {
		mult = 1
	}
	return int64(math.Ceil(float64(rawUnits) * mult))
}

func (m *Meter) limitFor(sub *model.Subscription) int64 {
	if sub != nil {
		if limit, ok := m.pricing.PlanLimits[sub.PlanID]; ok {
			return limit
		}
	}
	return m.pricing.DefaultLimit
}

// rolledOver reports whether the counting window ended: for paid users
// when the payment platform started a new billing cycle after the stored
// anchor, for free users when the anchor is more than 30 days old.
func rolledOver(sub *model.Subscription, usage *model.UsageRecord, now time.Time) bool {
	if sub != nil {
		return sub.PeriodStart.After(usage.PeriodAnchor)
	}
	return now.Sub(usage.PeriodAnchor) > freeWindow
}

func nextResetAt(sub *model.Subscription, usage *model.UsageRecord) time.Time {
	if sub != nil {
		return sub.PeriodStart.AddDate(0, 1, 0)
	}
	return usage.PeriodAnchor.Add(freeWindow)
}
