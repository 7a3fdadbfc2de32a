package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/doctree/internal/model"
)

func TestPGSubscriptionStore_Get_Found(t *testing.T) {
	db := &mockDB{}
	store := NewPGSubscriptionStore(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond)

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "u1"
		*(dest[1].(*string)) = "pro"
		*(dest[2].(*string)) = model.SubStatusActive
		*(dest[3].(*time.Time)) = now
		*(dest[4].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	sub, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.PlanID)
	assert.Equal(t, model.SubStatusActive, sub.Status)
	db.AssertExpectations(t)
}

func TestPGSubscriptionStore_Get_None(t *testing.T) {
	db := &mockDB{}
	store := NewPGSubscriptionStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	sub, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sub, "no active subscription reads as nil, not an error")
}

func TestPGUsageStore_Get_None(t *testing.T) {
	db := &mockDB{}
	store := NewPGUsageStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rec, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPGUsageStore_Create_ReadsBackWinningRow(t *testing.T) {
	db := &mockDB{}
	store := NewPGUsageStore(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond)

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "u1"
		*(dest[1].(*int64)) = 0
		*(dest[2].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rec, err := store.Create(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Zero(t, rec.UnitsConsumed)
	assert.Equal(t, now, rec.PeriodAnchor)
	db.AssertExpectations(t)
}

func TestPGUsageStore_AtomicIncrement_ReturnsNewTotal(t *testing.T) {
	db := &mockDB{}
	store := NewPGUsageStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 1042
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	total, err := store.AtomicIncrement(ctx, "u1", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1042), total)
}

func TestPGUsageStore_AtomicIncrement_Error(t *testing.T) {
	db := &mockDB{}
	store := NewPGUsageStore(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("db error")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := store.AtomicIncrement(ctx, "u1", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment usage record u1")
}

func TestPGUsageStore_Reset_NotFound(t *testing.T) {
	db := &mockDB{}
	store := NewPGUsageStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := store.Reset(ctx, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
