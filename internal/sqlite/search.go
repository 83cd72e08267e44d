package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/repository"
)

// Search performs a full-text search over every fixture, best match first.
// The query uses FTS5 syntax; plain words match by prefix.
func (r *FixtureRepository) Search(ctx context.Context, query string, opts fixtures.SearchOptions) ([]fixtures.SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return []fixtures.SearchResult{}, nil
	}

	baseQuery := `
		SELECT
			f.kind, f.id, f.title, f.body, f.data,
			bm25(fixtures_fts) AS rank,
			snippet(fixtures_fts, 1, '[', ']', '…', 8) AS snippet
		FROM fixtures_fts
		JOIN fixtures f ON f.rowid = fixtures_fts.rowid
		WHERE fixtures_fts MATCH ?
	`
	args := []interface{}{match}

	if len(opts.Kinds) > 0 {
		placeholders := make([]string, len(opts.Kinds))
		for i, kind := range opts.Kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		baseQuery += fmt.Sprintf(" AND f.kind IN (%s)", strings.Join(placeholders, ","))
	}

	baseQuery += " ORDER BY rank, f.kind, f.id"
	baseQuery, args = paginate(baseQuery, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, searchError(query, err)
	}
	defer rows.Close()

	results := []fixtures.SearchResult{}
	for rows.Next() {
		var result fixtures.SearchResult
		var kind, data string
		if err := rows.Scan(
			&kind,
			&result.Item.ID,
			&result.Item.Title,
			&result.Item.Text,
			&data,
			&result.Rank,
			&result.Snippet,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		result.Item.Kind = fixtures.Kind(kind)
		result.Item.Data = json.RawMessage(data)
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, searchError(query, err)
	}

	return results, nil
}

// ftsQuery turns free text into prefix terms. Input that already uses FTS5
// operators or quotes is passed through.
func ftsQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" || strings.ContainsAny(q, `"*:()`) {
		return q
	}
	terms := strings.Fields(q)
	for i, term := range terms {
		switch term {
		case "AND", "OR", "NOT":
			continue
		}
		terms[i] = `"` + strings.ReplaceAll(term, `"`, "") + `"*`
	}
	return strings.Join(terms, " ")
}

// searchError reports a query FTS5 cannot parse as invalid input.
func searchError(query string, err error) error {
	if isQuerySyntax(err) {
		return fmt.Errorf("%w: search query %q: %v", repository.ErrInvalidInput, query, err)
	}
	return fmt.Errorf("failed to search fixtures: %w", err)
}
