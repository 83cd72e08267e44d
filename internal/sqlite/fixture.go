package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/repository"
)

// FixtureRepository implements repository.FixtureRepository for SQLite
type FixtureRepository struct {
	db *DB
}

// NewFixtureRepository creates a new FixtureRepository
func NewFixtureRepository(db *DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// Seed replaces the catalog with set. The write is one transaction retried
// on lock contention.
func (r *FixtureRepository) Seed(ctx context.Context, set *fixtures.Set) error {
	return RetryWithBackoff(ctx, func() error {
		return r.seed(ctx, set)
	})
}

func (r *FixtureRepository) seed(ctx context.Context, set *fixtures.Set) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM fixtures", "DELETE FROM transactions"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset catalog: %w", err)
		}
	}

	for _, kind := range fixtures.Kinds {
		items, err := set.Items(kind)
		if err != nil {
			return err
		}
		for _, it := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO fixtures (kind, id, title, body, data) VALUES (?, ?, ?, ?, ?)`,
				string(it.Kind), it.ID, it.Title, it.Text, string(it.Data))
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: duplicate %s id %q", repository.ErrInvalidInput, kind, it.ID)
				}
				return fmt.Errorf("failed to insert fixture %s/%s: %w", kind, it.ID, err)
			}
		}
	}

	for _, t := range set.Transactions {
		flagged := t.FraudCheck != nil && t.FraudCheck.Flagged
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, merchant, amount, currency, date, category, status, flagged)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, t.Merchant, t.Amount, t.Currency, t.Date, t.Category, string(t.Status), flagged)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

// List returns one collection ordered by id.
func (r *FixtureRepository) List(ctx context.Context, kind fixtures.Kind, opts fixtures.ListOptions) ([]fixtures.Item, error) {
	query := `SELECT kind, id, title, body, data FROM fixtures WHERE kind = ? ORDER BY id`
	args := []interface{}{string(kind)}
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	defer rows.Close()

	items := []fixtures.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixture rows: %w", err)
	}
	return items, nil
}

// Get returns one fixture.
func (r *FixtureRepository) Get(ctx context.Context, kind fixtures.Kind, id string) (*fixtures.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT kind, id, title, body, data FROM fixtures WHERE kind = ? AND id = ?`, string(kind), id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListTransactions returns transactions matching filter, newest first.
func (r *FixtureRepository) ListTransactions(ctx context.Context, filter fixtures.TransactionFilter) ([]fixtures.Transaction, error) {
	query := `
		SELECT f.data
		FROM transactions t
		JOIN fixtures f ON f.kind = 'transactions' AND f.id = t.id
	`
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, "t.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		conditions = append(conditions, "t.category = ?")
		args = append(args, filter.Category)
	}
	if filter.MinAmount > 0 {
		conditions = append(conditions, "t.amount >= ?")
		args = append(args, filter.MinAmount)
	}
	if filter.Flagged {
		conditions = append(conditions, "t.flagged = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []fixtures.Transaction{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		var t fixtures.Transaction
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

// Counts returns the number of fixtures per kind.
func (r *FixtureRepository) Counts(ctx context.Context) (map[fixtures.Kind]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM fixtures GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count fixtures: %w", err)
	}
	defer rows.Close()

	counts := make(map[fixtures.Kind]int, len(fixtures.Kinds))
	for _, kind := range fixtures.Kinds {
		counts[kind] = 0
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[fixtures.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (fixtures.Item, error) {
	var it fixtures.Item
	var kind, data string
	if err := s.Scan(&kind, &it.ID, &it.Title, &it.Text, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return it, err
		}
		return it, fmt.Errorf("failed to scan fixture: %w", err)
	}
	it.Kind = fixtures.Kind(kind)
	it.Data = json.RawMessage(data)
	return it, nil
}

func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}
