package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"corral/internal/merge"
	"corral/internal/record"
	"corral/internal/services"
)

// CommitGroup persists a merge outcome atomically. Every member row is
// version-checked against the snapshot the decision was made from; if any
// member changed underneath the pass the whole transaction rolls back and
// the caller sees a conflict error, so it can re-fetch and retry.
//
// members must be the full membership of the group, whatever lifecycle
// state each record is in: membership only grows, so a commit that reuses
// an existing group carries that group's current members along. A group
// emptied by members migrating into this one is removed in the same
// transaction.
func (s *Store) CommitGroup(ctx context.Context, outcome merge.Outcome, members []record.Record, passID string) error {
	if len(members) < 2 {
		return services.Wrap(services.ErrValidation, "store", "commit group",
			fmt.Sprintf("group %s has %d members", outcome.GroupID, len(members)), nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group transaction: %w", err)
	}
	defer tx.Rollback()

	decidedAt := outcome.DecidedAt.UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
INSERT INTO merge_groups (id, decided_at, pass_id) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET decided_at = excluded.decided_at, pass_id = excluded.pass_id`,
		outcome.GroupID, decidedAt, passID); err != nil {
		return fmt.Errorf("write merge group %s: %w", outcome.GroupID, err)
	}

	// Members may be migrating from previously committed groups; their old
	// membership rows go first so the unique record index does not reject
	// the rewrite. Only the rows of records in this commit are touched.
	for _, member := range members {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM group_members WHERE source_id = ? AND external_id = ?`,
			member.SourceID, member.ExternalID); err != nil {
			return fmt.Errorf("clear prior membership for %s: %w", member.Ref, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM canonical_fields WHERE group_id = ?`, outcome.GroupID); err != nil {
		return fmt.Errorf("clear canonical fields %s: %w", outcome.GroupID, err)
	}

	for _, member := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, source_id, external_id) VALUES (?, ?, ?)`,
			outcome.GroupID, member.SourceID, member.ExternalID); err != nil {
			return fmt.Errorf("add member %s to group %s: %w", member.Ref, outcome.GroupID, err)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE records SET group_id = ?, version = version + 1, updated_at = ?
WHERE source_id = ? AND external_id = ? AND version = ?`,
			outcome.GroupID, decidedAt,
			member.SourceID, member.ExternalID, member.Version)
		if err != nil {
			return fmt.Errorf("assign group to %s: %w", member.Ref, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("assign group to %s: %w", member.Ref, err)
		}
		if affected != 1 {
			return services.Wrap(services.ErrStoreConflict, "store", "commit group",
				fmt.Sprintf("record %s changed since the pass snapshot", member.Ref), nil)
		}
	}

	fields := make([]string, 0, len(outcome.Canonical))
	for field := range outcome.Canonical {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		value := outcome.Canonical[field]
		if _, err := tx.ExecContext(ctx, `
INSERT INTO canonical_fields (group_id, field, value, source_id, external_id)
VALUES (?, ?, ?, ?, ?)`,
			outcome.GroupID, field, value.Value, value.Source.SourceID, value.Source.ExternalID); err != nil {
			return fmt.Errorf("write canonical field %s.%s: %w", outcome.GroupID, field, err)
		}
	}

	// Groups the members migrated out of may now be empty shells; drop
	// them so listings never show a group with no members.
	if err := dropEmptiedGroups(ctx, tx, outcome.GroupID, members); err != nil {
		return err
	}

	// Pending review pairs that involve a now-merged record are stale.
	for _, member := range members {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM review_pairs
WHERE (a_source = ? AND a_external = ?) OR (b_source = ? AND b_external = ?)`,
			member.SourceID, member.ExternalID, member.SourceID, member.ExternalID); err != nil {
			return fmt.Errorf("clear review pairs for %s: %w", member.Ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group %s: %w", outcome.GroupID, err)
	}
	return nil
}

func dropEmptiedGroups(ctx context.Context, tx *sql.Tx, winner string, members []record.Record) error {
	prior := make(map[string]struct{})
	for _, member := range members {
		if member.GroupID != "" && member.GroupID != winner {
			prior[member.GroupID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(prior))
	for id := range prior {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		var remaining int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM group_members WHERE group_id = ?`, id).Scan(&remaining); err != nil {
			return fmt.Errorf("count members of %s: %w", id, err)
		}
		if remaining > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM canonical_fields WHERE group_id = ?`, id); err != nil {
			return fmt.Errorf("drop canonical fields of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM merge_groups WHERE id = ?`, id); err != nil {
			return fmt.Errorf("drop empty group %s: %w", id, err)
		}
	}
	return nil
}

// Group is a committed merge group with its members and canonical fields.
type Group struct {
	ID        string                          `json:"id"`
	DecidedAt time.Time                       `json:"decided_at"`
	PassID    string                          `json:"pass_id"`
	Members   []record.Ref                    `json:"members"`
	Canonical map[string]merge.CanonicalValue `json:"canonical_fields"`
}

// GetGroup loads one group with members and canonical fields.
func (s *Store) GetGroup(ctx context.Context, id string) (Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, decided_at, pass_id FROM merge_groups WHERE id = ?`, id)
	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return Group{}, services.Wrap(services.ErrNotFound, "store", "get group", id, nil)
	}
	if err != nil {
		return Group{}, err
	}
	if err := s.populateGroups(ctx, []*Group{&group}); err != nil {
		return Group{}, err
	}
	return group, nil
}

// ListGroups returns all committed groups, newest decision first.
func (s *Store) ListGroups(ctx context.Context, limit int) ([]Group, error) {
	query := `SELECT id, decided_at, pass_id FROM merge_groups ORDER BY decided_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	if err := s.populateGroups(ctx, groups); err != nil {
		return nil, err
	}
	result := make([]Group, len(groups))
	for i, group := range groups {
		result[i] = *group
	}
	return result, nil
}

func scanGroup(row rowScanner) (Group, error) {
	var group Group
	var decidedAt string
	if err := row.Scan(&group.ID, &decidedAt, &group.PassID); err != nil {
		if err == sql.ErrNoRows {
			return Group{}, err
		}
		return Group{}, fmt.Errorf("scan group: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, decidedAt)
	if err != nil {
		return Group{}, fmt.Errorf("parse decided_at %q: %w", decidedAt, err)
	}
	group.DecidedAt = ts
	return group, nil
}

func (s *Store) populateGroups(ctx context.Context, groups []*Group) error {
	for _, group := range groups {
		memberRows, err := s.db.QueryContext(ctx, `
SELECT source_id, external_id FROM group_members
WHERE group_id = ? ORDER BY source_id, external_id`, group.ID)
		if err != nil {
			return fmt.Errorf("query members of %s: %w", group.ID, err)
		}
		for memberRows.Next() {
			var ref record.Ref
			if err := memberRows.Scan(&ref.SourceID, &ref.ExternalID); err != nil {
				memberRows.Close()
				return fmt.Errorf("scan member of %s: %w", group.ID, err)
			}
			group.Members = append(group.Members, ref)
		}
		if err := memberRows.Err(); err != nil {
			memberRows.Close()
			return fmt.Errorf("iterate members of %s: %w", group.ID, err)
		}
		memberRows.Close()

		fieldRows, err := s.db.QueryContext(ctx, `
SELECT field, value, source_id, external_id FROM canonical_fields
WHERE group_id = ? ORDER BY field`, group.ID)
		if err != nil {
			return fmt.Errorf("query canonical fields of %s: %w", group.ID, err)
		}
		group.Canonical = make(map[string]merge.CanonicalValue)
		for fieldRows.Next() {
			var field string
			var value merge.CanonicalValue
			if err := fieldRows.Scan(&field, &value.Value, &value.Source.SourceID, &value.Source.ExternalID); err != nil {
				fieldRows.Close()
				return fmt.Errorf("scan canonical field of %s: %w", group.ID, err)
			}
			group.Canonical[field] = value
		}
		if err := fieldRows.Err(); err != nil {
			fieldRows.Close()
			return fmt.Errorf("iterate canonical fields of %s: %w", group.ID, err)
		}
		fieldRows.Close()
	}
	return nil
}
