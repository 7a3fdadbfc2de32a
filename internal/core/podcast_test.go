package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/model"
)

func TestPodcastServiceCreate(t *testing.T) {
	db := &mockDB{}
	tc := &temporalmocks.Client{}
	meter := &fakeMeter{}
	svc := NewPodcastService(db, tc, meter)

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "t.user_id FROM nodes")
	}), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = "user-1"
		return nil
	}})
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM podcasts")
	}), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*time.Time) = time.Now()
		*dest[1].(*time.Time) = time.Now()
		return nil
	}})

	run := &temporalmocks.WorkflowRun{}
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, "GeneratePodcastWorkflow", mock.Anything).
		Return(run, nil)

	p, err := svc.Create(context.Background(), "user-1", "n1", "nova")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "nova", p.Voice)
	assert.Equal(t, 1, meter.preflights)
	tc.AssertExpectations(t)
}

func TestPodcastServiceCreateBlockedOverCap(t *testing.T) {
	db := &mockDB{}
	tc := &temporalmocks.Client{}
	meter := &fakeMeter{preflight: &billing.LimitExceededError{Quota: billing.Quota{ConsumedTotal: 500, Limit: 500}}}
	svc := NewPodcastService(db, tc, meter)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "user-1"
			return nil
		}})

	_, err := svc.Create(context.Background(), "user-1", "n1", "nova")

	var limitErr *billing.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	tc.AssertNotCalled(t, "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPodcastServiceCreateForeignNode(t *testing.T) {
	db := &mockDB{}
	tc := &temporalmocks.Client{}
	svc := NewPodcastService(db, tc, &fakeMeter{})

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "someone-else"
			return nil
		}})

	_, err := svc.Create(context.Background(), "user-1", "n1", "nova")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPodcastServiceGetByIDNotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewPodcastService(db, &temporalmocks.Client{}, &fakeMeter{})

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := svc.GetByID(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPodcastServiceDelete(t *testing.T) {
	db := &mockDB{}
	svc := NewPodcastService(db, &temporalmocks.Client{}, &fakeMeter{})

	db.On("Exec", mock.Anything, mock.Anything, []any{"p1", "user-1"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "p1"))
}
