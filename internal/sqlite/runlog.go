package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/agentic-te/internal/domain/demo"
	"github.com/ganot/agentic-te/internal/repository"
)

// RunLogRepository implements repository.RunLogRepository for SQLite
type RunLogRepository struct {
	db *DB
}

// NewRunLogRepository creates a new RunLogRepository
func NewRunLogRepository(db *DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

// Log inserts a new run entry
func (r *RunLogRepository) Log(ctx context.Context, tenantID string, entry *demo.RunEntry) error {
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	params, err := json.Marshal(entry.Params)
	if err != nil {
		return fmt.Errorf("failed to encode run params: %w", err)
	}

	query := `
		INSERT INTO run_log (
			tenant_id, session_id, run_id, scenario,
			params, steps, duration_ms, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var result sql.Result
	err = RetryWithBackoff(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query,
			tenantID,
			entry.SessionID,
			entry.RunID,
			entry.Scenario,
			string(params),
			entry.Steps,
			entry.Duration.Milliseconds(),
			startedAt.UTC(),
		)
		result = res
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: run %s already logged", repository.ErrConflict, entry.RunID)
		}
		return fmt.Errorf("failed to log run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	entry.TenantID = tenantID
	entry.StartedAt = startedAt

	return nil
}

// List returns run entries matching the given filters, newest first
func (r *RunLogRepository) List(ctx context.Context, tenantID string, opts demo.RunListOptions) ([]demo.RunEntry, error) {
	query := `
		SELECT
			id, tenant_id, session_id, run_id, scenario,
			params, steps, duration_ms, started_at
		FROM run_log
		WHERE tenant_id = ?
	`

	args := []interface{}{tenantID}
	conditions := []string{}

	if opts.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if opts.Scenario != "" {
		conditions = append(conditions, "scenario = ?")
		args = append(args, opts.Scenario)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY started_at DESC, id DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	entries := []demo.RunEntry{}
	for rows.Next() {
		var entry demo.RunEntry
		var params string
		var durationMS int64
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.SessionID,
			&entry.RunID,
			&entry.Scenario,
			&params,
			&entry.Steps,
			&durationMS,
			&entry.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &entry.Params); err != nil {
			return nil, fmt.Errorf("failed to decode run params: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return entries, nil
}
