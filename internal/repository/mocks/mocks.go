package mocks

import (
	"context"

	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/stretchr/testify/mock"
)

// FixtureRepository is a mock for repository.FixtureRepository.
type FixtureRepository struct {
	mock.Mock
}

func (m *FixtureRepository) List(ctx context.Context, kind fixtures.Kind, opts fixtures.ListOptions) ([]fixtures.Item, error) {
	args := m.Called(ctx, kind, opts)
	if items, ok := args.Get(0).([]fixtures.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FixtureRepository) Get(ctx context.Context, kind fixtures.Kind, id string) (*fixtures.Item, error) {
	args := m.Called(ctx, kind, id)
	if item, ok := args.Get(0).(*fixtures.Item); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FixtureRepository) ListTransactions(ctx context.Context, filter fixtures.TransactionFilter) ([]fixtures.Transaction, error) {
	args := m.Called(ctx, filter)
	if txns, ok := args.Get(0).([]fixtures.Transaction); ok {
		return txns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FixtureRepository) Search(ctx context.Context, query string, opts fixtures.SearchOptions) ([]fixtures.SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if results, ok := args.Get(0).([]fixtures.SearchResult); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FixtureRepository) Counts(ctx context.Context) (map[fixtures.Kind]int, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[fixtures.Kind]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// RunLogRepository is a mock for repository.RunLogRepository.
type RunLogRepository struct {
	mock.Mock
}

func (m *RunLogRepository) Log(ctx context.Context, tenantID string, entry *demo.RunEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *RunLogRepository) List(ctx context.Context, tenantID string, opts demo.RunListOptions) ([]demo.RunEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if entries, ok := args.Get(0).([]demo.RunEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
