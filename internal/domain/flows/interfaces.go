package flows

import (
	"context"

	"github.com/ganot/agentic-te/internal/fixtures"
)

// Catalog provides the fixture reads the flows need.
type Catalog interface {
	List(ctx context.Context, kind fixtures.Kind, opts fixtures.ListOptions) ([]fixtures.Item, error)
	Get(ctx context.Context, kind fixtures.Kind, id string) (*fixtures.Item, error)
	ListTransactions(ctx context.Context, filter fixtures.TransactionFilter) ([]fixtures.Transaction, error)
}
