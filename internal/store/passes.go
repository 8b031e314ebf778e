package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Pass is a persisted detection pass with its outcome counters.
type Pass struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	SnapshotSize    int        `json:"snapshot_size"`
	PairsScored     int        `json:"pairs_scored"`
	GroupsCommitted int        `json:"groups_committed"`
	GroupsDeferred  int        `json:"groups_deferred"`
	PairsReview     int        `json:"pairs_review"`
	Error           string     `json:"error,omitempty"`
}

// BeginPass records the start of a detection pass.
func (s *Store) BeginPass(ctx context.Context, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passes (id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("begin pass %s: %w", id, err)
	}
	return nil
}

// FinishPass records the end of a pass together with its counters.
func (s *Store) FinishPass(ctx context.Context, pass Pass) error {
	finishedAt := any(nil)
	if pass.FinishedAt != nil {
		finishedAt = pass.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE passes SET finished_at = ?, snapshot_size = ?, pairs_scored = ?,
    groups_committed = ?, groups_deferred = ?, pairs_review = ?, error = ?
WHERE id = ?`,
		finishedAt, pass.SnapshotSize, pass.PairsScored,
		pass.GroupsCommitted, pass.GroupsDeferred, pass.PairsReview, pass.Error,
		pass.ID)
	if err != nil {
		return fmt.Errorf("finish pass %s: %w", pass.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish pass %s: pass not started", pass.ID)
	}
	return nil
}

// ListPasses returns recorded passes, most recent first.
func (s *Store) ListPasses(ctx context.Context, limit int) ([]Pass, error) {
	query := `
SELECT id, started_at, finished_at, snapshot_size, pairs_scored,
    groups_committed, groups_deferred, pairs_review, error
FROM passes ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var pass Pass
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&pass.ID, &startedAt, &finishedAt,
			&pass.SnapshotSize, &pass.PairsScored,
			&pass.GroupsCommitted, &pass.GroupsDeferred, &pass.PairsReview,
			&pass.Error); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse pass started_at %q: %w", startedAt, err)
		}
		pass.StartedAt = ts
		if finishedAt.Valid && finishedAt.String != "" {
			fin, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse pass finished_at %q: %w", finishedAt.String, err)
			}
			pass.FinishedAt = &fin
		}
		passes = append(passes, pass)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}
