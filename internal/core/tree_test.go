package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/model"
)

func TestTreeServiceCreate(t *testing.T) {
	db := &mockDB{}
	gen := &fakeLLM{
		raw:   json.RawMessage(`{"subtopics":[{"title":"Variables","summary":"Naming values"},{"title":"Functions","summary":"Reusable blocks"}]}`),
		usage: llm.Usage{TotalTokens: 120},
	}
	meter := &fakeMeter{}
	svc := NewTreeService(db, gen, meter)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*time.Time) = time.Now()
			*dest[1].(*time.Time) = time.Now()
			return nil
		}})

	tree, nodes, err := svc.Create(context.Background(), "user-1", "Go", "I know Python")
	require.NoError(t, err)

	assert.Equal(t, "Go", tree.Topic)
	assert.Equal(t, "user-1", tree.UserID)
	assert.Equal(t, model.StatusActive, tree.Status)

	// Root plus one child per subtopic.
	require.Len(t, nodes, 3)
	assert.Nil(t, nodes[0].ParentID)
	assert.Equal(t, "Go", nodes[0].Title)
	require.NotNil(t, nodes[1].ParentID)
	assert.Equal(t, nodes[0].ID, *nodes[1].ParentID)
	assert.Equal(t, "Variables", nodes[1].Title)
	assert.Equal(t, 1, nodes[2].Position)

	// Pre-flight gate, then one metered charge at the reported token count.
	assert.Equal(t, 1, meter.preflights)
	assert.Equal(t, []int64{120}, meter.consumed)
	assert.Contains(t, meter.modelsSeen, "gpt-5-mini")
}

func TestTreeServiceCreateBlockedBeforeGeneration(t *testing.T) {
	db := &mockDB{}
	gen := &fakeLLM{}
	meter := &fakeMeter{preflight: &billing.LimitExceededError{Quota: billing.Quota{ConsumedTotal: 500, Limit: 500}}}
	svc := NewTreeService(db, gen, meter)

	_, _, err := svc.Create(context.Background(), "user-1", "Go", "")

	var limitErr *billing.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Empty(t, gen.prompts, "generation must not run when the user is over cap")
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestTreeServiceCreateGenerationFailureNotMetered(t *testing.T) {
	db := &mockDB{}
	gen := &fakeLLM{err: errBoom}
	meter := &fakeMeter{}
	svc := NewTreeService(db, gen, meter)

	_, _, err := svc.Create(context.Background(), "user-1", "Go", "")
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, meter.consumption, "failed generations consume nothing")
}

func TestTreeServiceGetByIDNotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := svc.GetByID(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeServiceListByUserPagination(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	treeRow := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*string) = id
			*dest[1].(*string) = "user-1"
			*dest[2].(*string) = "Topic " + id
			return nil
		}
	}
	// limit+1 rows back means another page exists.
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRows{scans: []func(dest ...any) error{treeRow("t1"), treeRow("t2"), treeRow("t3")}}, nil)

	trees, hasMore, err := svc.ListByUser(context.Background(), "user-1", 2, "")
	require.NoError(t, err)
	assert.Len(t, trees, 2)
	assert.True(t, hasMore)
	assert.Equal(t, "t1", trees[0].ID)
}

func TestTreeServiceDelete(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	db.On("Exec", mock.Anything, mock.Anything, []any{"t1", "user-1"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "t1"))
}

func TestTreeServiceDeleteNotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeServiceNodesRequiresOwnership(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM trees")
	}), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := svc.Nodes(context.Background(), "other-user", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestTreeServiceListByUserQueryError(t *testing.T) {
	db := &mockDB{}
	svc := NewTreeService(db, &fakeLLM{}, &fakeMeter{})

	db.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, _, err := svc.ListByUser(context.Background(), "user-1", 10, "")
	assert.ErrorContains(t, err, "list trees")
}
