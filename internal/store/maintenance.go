package store

import (
	"context"
	"fmt"
	"time"

	"corral/internal/record"
)

// ExpireOpenBefore marks open records published before the cutoff as
// expired and returns the number of rows changed. Records with no
// published timestamp are left alone.
func (s *Store) ExpireOpenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE records SET status = ?, version = version + 1, updated_at = ?
WHERE status = ? AND published_at IS NOT NULL AND published_at < ?`,
		string(record.StatusExpired),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(record.StatusOpen),
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("expire records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire records: %w", err)
	}
	return affected, nil
}

// MarkConsumed sets a record's status to consumed.
func (s *Store) MarkConsumed(ctx context.Context, ref record.Ref) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE records SET status = ?, version = version + 1, updated_at = ?
WHERE source_id = ? AND external_id = ?`,
		string(record.StatusConsumed),
		time.Now().UTC().Format(time.RFC3339Nano),
		ref.SourceID, ref.ExternalID)
	if err != nil {
		return fmt.Errorf("mark %s consumed: %w", ref, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("mark %s consumed: record not found", ref)
	}
	return nil
}
