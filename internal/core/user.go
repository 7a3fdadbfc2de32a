package core

import (
	"context"
	"fmt"

	"github.com/edvin/doctree/internal/model"
	"github.com/edvin/doctree/internal/platform"
)

// UserService manages user rows.
type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, email, displayName string) (*model.User, error) {
	u := &model.User{
		ID:          platform.NewID(),
		Email:       email,
		DisplayName: displayName,
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, display_name, created_at) VALUES ($1, $2, $3, now())`,
		u.ID, u.Email, u.DisplayName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := s.db.QueryRow(ctx, "SELECT created_at FROM users WHERE id = $1", u.ID).Scan(&u.CreatedAt); err != nil {
		return nil, fmt.Errorf("get user created_at: %w", err)
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, display_name, stripe_customer_id, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.StripeCustomerID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, notFoundOr(err))
	}
	return &u, nil
}

// SetStripeCustomerID links a user to their payment-platform customer,
// so webhook events can be attributed.
func (s *UserService) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET stripe_customer_id = $1 WHERE id = $2`, customerID, userID,
	)
	if err != nil {
		return fmt.Errorf("set stripe customer for %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set stripe customer for %s: %w", userID, ErrNotFound)
	}
	return nil
}
