package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/doctree/internal/billing"
	"github.com/edvin/doctree/internal/llm"
	"github.com/edvin/doctree/internal/search"
)

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

// mockRows implements pgx.Rows over a fixed list of scan functions, one
// per row.
type mockRows struct {
	scans []func(dest ...any) error
	idx   int
	err   error
}

func (m *mockRows) Next() bool {
	if m.idx >= len(m.scans) {
		return false
	}
	m.idx++
	return true
}

func (m *mockRows) Scan(dest ...any) error {
	return m.scans[m.idx-1](dest...)
}

func (m *mockRows) Close()                                       {}
func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// fakeMeter records metering calls and optionally fails on the
// pre-flight or the consuming call.
type fakeMeter struct {
	quota       billing.Quota
	preflight   error
	consumeErr  error
	consumed    []int64
	modelsSeen  []string
	lastUserID  string
	preflights  int
	consumption int
}

func (f *fakeMeter) CheckAndConsume(_ context.Context, userID string, rawUnits int64, modelID string) (billing.Quota, error) {
	f.lastUserID = userID
	f.modelsSeen = append(f.modelsSeen, modelID)
	if rawUnits == 0 {
		f.preflights++
		if f.preflight != nil {
			return billing.Quota{}, f.preflight
		}
		return f.quota, nil
	}
	f.consumption++
	f.consumed = append(f.consumed, rawUnits)
	if f.consumeErr != nil {
		return f.quota, f.consumeErr
	}
	return f.quota, nil
}

// fakeLLM returns canned generation results.
type fakeLLM struct {
	text    string
	raw     json.RawMessage
	usage   llm.Usage
	err     error
	prompts []string
}

func (f *fakeLLM) GenerateText(_ context.Context, _, user string) (string, llm.Usage, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", llm.Usage{}, f.err
	}
	return f.text, f.usage, nil
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _, user, _ string, _ json.RawMessage) (json.RawMessage, llm.Usage, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return nil, llm.Usage{}, f.err
	}
	return f.raw, f.usage, nil
}

func (f *fakeLLM) Model() string { return "gpt-5-mini" }

// fakeSearcher returns canned results keyed by query.
type fakeSearcher struct {
	results map[string][]search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[query]; ok {
		return r, nil
	}
	return []search.Result{{Title: "result for " + query, URL: "https://example.com"}}, nil
}

var errBoom = fmt.Errorf("boom")
