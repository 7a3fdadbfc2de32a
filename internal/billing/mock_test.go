package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/doctree/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- In-memory stores ----------

// memSubs is a fixed subscription lookup.
type memSubs struct {
	subs map[string]*model.Subscription
	err  error
}

func (s *memSubs) Get(_ context.Context, userID string) (*model.Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	sub, ok := s.subs[userID]
	if !ok {
		return nil, nil
	}
	if sub.Status != model.SubStatusTrialing && sub.Status != model.SubStatusActive {
		return nil, nil
	}
	return sub, nil
}

// memUsage is an in-memory usage counter with the same observable
// behavior as the Postgres store, including atomic increments.
type memUsage struct {
	mu      sync.Mutex
	records map[string]*model.UsageRecord
	now     func() time.Time

	resets     int
	increments []int64
	err        error
}

func newMemUsage(now func() time.Time) *memUsage {
	return &memUsage{records: map[string]*model.UsageRecord{}, now: now}
}

func (s *memUsage) Get(_ context.Context, userID string) (*model.UsageRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memUsage) Create(_ context.Context, userID string) (*model.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		s.records[userID] = &model.UsageRecord{UserID: userID, PeriodAnchor: s.now()}
	}
	cp := *s.records[userID]
	return &cp, nil
}

func (s *memUsage) Reset(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return fmt.Errorf("usage record %s not found", userID)
	}
	rec.UnitsConsumed = 0
	rec.PeriodAnchor = s.now()
	s.resets++
	return nil
}

func (s *memUsage) AtomicIncrement(_ context.Context, userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return 0, fmt.Errorf("usage record %s not found", userID)
	}
	rec.UnitsConsumed += amount
	s.increments = append(s.increments, amount)
	return rec.UnitsConsumed, nil
}

func (s *memUsage) set(userID string, consumed int64, anchor time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = &model.UsageRecord{UserID: userID, UnitsConsumed: consumed, PeriodAnchor: anchor}
}
