package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_Create(t *testing.T) {
	db := new(mockDB)
	svc := NewUserService(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			*dest[0].(*time.Time) = created
			return nil
		},
	})

	user, err := svc.Create(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.DisplayName)
	assert.Equal(t, created, user.CreatedAt)
	db.AssertExpectations(t)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := new(mockDB)
	svc := NewUserService(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(dest ...any) error { return pgx.ErrNoRows },
	})

	_, err := svc.GetByID(context.Background(), "u-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_SetStripeCustomerID(t *testing.T) {
	db := new(mockDB)
	svc := NewUserService(db)

	db.On("Exec", mock.Anything, mock.Anything, []any{"cus_123", "u1"}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, svc.SetStripeCustomerID(context.Background(), "u1", "cus_123"))
	db.AssertExpectations(t)
}

func TestUserService_SetStripeCustomerID_UnknownUser(t *testing.T) {
	db := new(mockDB)
	svc := NewUserService(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.SetStripeCustomerID(context.Background(), "u-missing", "cus_123")
	assert.ErrorIs(t, err, ErrNotFound)
}
