package billing

import "context"

// Meterer is the metering contract consumed by generation call sites.
// *Meter satisfies it.
type Meterer interface {
	CheckAndConsume(ctx context.Context, userID string, rawUnits int64, modelID string) (Quota, error)
}

// Gated runs an AI generation behind the usage meter. It performs a
// zero-unit pre-flight check before fn runs, then meters the units fn
// reports. fn returns its result together with the raw unit count the
// work consumed (tokens for text generation, characters for speech).
//
// When the post-generation metering fails with *LimitExceededError the
// result is still returned alongside the error: the work already happened
// and its cost is recorded, but the caller must not present the result as
// a success.
func Gated[T any](ctx context.Context, m Meterer, userID, modelID string, fn func(context.Context) (T, int64, error)) (T, Quota, error) {
	var zero T

	if _, err := m.CheckAndConsume(ctx, userID, 0, modelID); err != nil {
		return zero, Quota{}, err
	}

	result, units, err := fn(ctx)
	if err != nil {
		return zero, Quota{}, err
	}

	quota, err := m.CheckAndConsume(ctx, userID, units, modelID)
	if err != nil {
		return result, quota, err
	}

	return result, quota, nil
}
