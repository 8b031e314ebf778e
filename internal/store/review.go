package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"corral/internal/match"
	"corral/internal/record"
)

// ReviewPair is a medium-confidence candidate pair held for manual review.
type ReviewPair struct {
	A         record.Ref      `json:"a"`
	B         record.Ref      `json:"b"`
	Score     float64         `json:"score"`
	Breakdown match.Breakdown `json:"breakdown"`
	PassID    string          `json:"pass_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveReviewPair records or refreshes a pair flagged for review. Later
// passes overwrite the score so the queue reflects the latest snapshot.
func (s *Store) SaveReviewPair(ctx context.Context, pair ReviewPair) error {
	breakdown, err := json.Marshal(pair.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	createdAt := pair.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO review_pairs (a_source, a_external, b_source, b_external, score, breakdown, pass_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (a_source, a_external, b_source, b_external) DO UPDATE SET
    score = excluded.score,
    breakdown = excluded.breakdown,
    pass_id = excluded.pass_id`,
		pair.A.SourceID, pair.A.ExternalID, pair.B.SourceID, pair.B.ExternalID,
		pair.Score, string(breakdown), pair.PassID,
		createdAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save review pair %s|%s: %w", pair.A, pair.B, err)
	}
	return nil
}

// ListReviewPairs returns pending review pairs, highest score first.
func (s *Store) ListReviewPairs(ctx context.Context, limit int) ([]ReviewPair, error) {
	query := `
SELECT a_source, a_external, b_source, b_external, score, breakdown, pass_id, created_at
FROM review_pairs ORDER BY score DESC, a_source, a_external, b_source, b_external`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review pairs: %w", err)
	}
	defer rows.Close()

	var pairs []ReviewPair
	for rows.Next() {
		var pair ReviewPair
		var breakdown, createdAt string
		if err := rows.Scan(
			&pair.A.SourceID, &pair.A.ExternalID,
			&pair.B.SourceID, &pair.B.ExternalID,
			&pair.Score, &breakdown, &pair.PassID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review pair: %w", err)
		}
		if err := json.Unmarshal([]byte(breakdown), &pair.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse review created_at %q: %w", createdAt, err)
		}
		pair.CreatedAt = ts
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review pairs: %w", err)
	}
	return pairs, nil
}

// DeleteReviewPair removes one pair from the review queue.
func (s *Store) DeleteReviewPair(ctx context.Context, a, b record.Ref) error {
	if b.Less(a) {
		a, b = b, a
	}
	_, err := s.db.ExecContext(ctx, `
DELETE FROM review_pairs
WHERE a_source = ? AND a_external = ? AND b_source = ? AND b_external = ?`,
		a.SourceID, a.ExternalID, b.SourceID, b.ExternalID)
	if err != nil {
		return fmt.Errorf("delete review pair %s|%s: %w", a, b, err)
	}
	return nil
}
