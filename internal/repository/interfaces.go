package repository

import (
	"context"

	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/fixtures"
)

// FixtureRepository serves the read-only mock catalog
type FixtureRepository interface {
	List(ctx context.Context, kind fixtures.Kind, opts fixtures.ListOptions) ([]fixtures.Item, error)
	Get(ctx context.Context, kind fixtures.Kind, id string) (*fixtures.Item, error)
	ListTransactions(ctx context.Context, filter fixtures.TransactionFilter) ([]fixtures.Transaction, error)
	Search(ctx context.Context, query string, opts fixtures.SearchOptions) ([]fixtures.SearchResult, error)
	Counts(ctx context.Context) (map[fixtures.Kind]int, error)
}

// RunLogRepository manages scenario run history
type RunLogRepository interface {
	Log(ctx context.Context, tenantID string, entry *demo.RunEntry) error
	List(ctx context.Context, tenantID string, opts demo.RunListOptions) ([]demo.RunEntry, error)
}
