package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"corral/internal/record"
	"corral/internal/services"
)

// UpsertRecord inserts a record or refreshes its content fields. Lifecycle
// fields (status, group assignment) are preserved on update: re-broadcasts
// of a known posting update what the source said, not what the engine
// decided.
func (s *Store) UpsertRecord(ctx context.Context, rec record.Record) error {
	cols, err := encodeRecordColumns(rec)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	status := rec.Status
	if status == "" {
		status = record.StatusOpen
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (
    source_id, external_id, code,
    postal_explicit, postal_estimated,
    subjects_primary, subjects_fallback, levels,
    rate_min, rate_max, published_at, availability,
    quality_score, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source_id, external_id) DO UPDATE SET
    code = excluded.code,
    postal_explicit = excluded.postal_explicit,
    postal_estimated = excluded.postal_estimated,
    subjects_primary = excluded.subjects_primary,
    subjects_fallback = excluded.subjects_fallback,
    levels = excluded.levels,
    rate_min = excluded.rate_min,
    rate_max = excluded.rate_max,
    published_at = excluded.published_at,
    availability = excluded.availability,
    quality_score = excluded.quality_score,
    version = records.version + 1,
    updated_at = excluded.updated_at`,
		rec.SourceID, rec.ExternalID, rec.Code,
		cols.postalExplicit, cols.postalEstimated,
		cols.subjectsPrimary, cols.subjectsFallback, cols.levels,
		nullableInt(rec.RateMin), nullableInt(rec.RateMax),
		nullableTime(rec.PublishedAt), cols.availability,
		rec.QualityScore, string(status), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.Ref, err)
	}
	return nil
}

// GetRecord fetches one record by reference.
func (s *Store) GetRecord(ctx context.Context, ref record.Ref) (record.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecordSQL+` WHERE source_id = ? AND external_id = ?`,
		ref.SourceID, ref.ExternalID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, services.Wrap(services.ErrNotFound, "store", "get record", ref.String(), nil)
	}
	return rec, err
}

// ListOpen returns all open records ordered by reference. This is the
// snapshot a detection pass operates on.
func (s *Store) ListOpen(ctx context.Context) ([]record.Record, error) {
	return s.listRecords(ctx, selectRecordSQL+` WHERE status = ? ORDER BY source_id, external_id`,
		string(record.StatusOpen))
}

// ListOpenSince returns open records published at or after the cutoff,
// plus those with no published timestamp.
func (s *Store) ListOpenSince(ctx context.Context, since time.Time) ([]record.Record, error) {
	return s.listRecords(ctx,
		selectRecordSQL+` WHERE status = ? AND (published_at IS NULL OR published_at >= ?)
ORDER BY source_id, external_id`,
		string(record.StatusOpen), since.UTC().Format(time.RFC3339Nano))
}

// ListRecords returns records filtered by status ("" for all), newest first,
// capped at limit (0 for no cap).
func (s *Store) ListRecords(ctx context.Context, status record.Status, limit int) ([]record.Record, error) {
	query := selectRecordSQL
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY published_at DESC, source_id, external_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.listRecords(ctx, query, args...)
}

func (s *Store) listRecords(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

const selectRecordSQL = `
SELECT source_id, external_id, code,
    postal_explicit, postal_estimated,
    subjects_primary, subjects_fallback, levels,
    rate_min, rate_max, published_at, availability,
    quality_score, status, group_id, version
FROM records`

type recordColumns struct {
	postalExplicit   string
	postalEstimated  string
	subjectsPrimary  string
	subjectsFallback string
	levels           string
	availability     string
}

func encodeRecordColumns(rec record.Record) (recordColumns, error) {
	var cols recordColumns
	var err error
	if cols.postalExplicit, err = encodeStrings(rec.PostalExplicit); err != nil {
		return cols, err
	}
	if cols.postalEstimated, err = encodeStrings(rec.PostalEstimated); err != nil {
		return cols, err
	}
	if cols.subjectsPrimary, err = encodeStrings(rec.SubjectsPrimary); err != nil {
		return cols, err
	}
	if cols.subjectsFallback, err = encodeStrings(rec.SubjectsFallback); err != nil {
		return cols, err
	}
	if cols.levels, err = encodeStrings(rec.Levels); err != nil {
		return cols, err
	}
	availability := rec.Availability
	if availability == nil {
		availability = record.Availability{}
	}
	data, err := json.Marshal(availability)
	if err != nil {
		return cols, fmt.Errorf("marshal availability: %w", err)
	}
	cols.availability = string(data)
	return cols, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (record.Record, error) {
	var rec record.Record
	var postalExplicit, postalEstimated, subjectsPrimary, subjectsFallback, levels, availability string
	var rateMin, rateMax sql.NullInt64
	var publishedAt, groupID sql.NullString
	var status string

	err := row.Scan(
		&rec.SourceID, &rec.ExternalID, &rec.Code,
		&postalExplicit, &postalEstimated,
		&subjectsPrimary, &subjectsFallback, &levels,
		&rateMin, &rateMax, &publishedAt, &availability,
		&rec.QualityScore, &status, &groupID, &rec.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, err
		}
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.Status = record.Status(status)
	if groupID.Valid {
		rec.GroupID = groupID.String
	}
	if rateMin.Valid {
		v := int(rateMin.Int64)
		rec.RateMin = &v
	}
	if rateMax.Valid {
		v := int(rateMax.Int64)
		rec.RateMax = &v
	}
	if publishedAt.Valid && publishedAt.String != "" {
		ts, parseErr := time.Parse(time.RFC3339Nano, publishedAt.String)
		if parseErr != nil {
			return record.Record{}, fmt.Errorf("parse published_at %q: %w", publishedAt.String, parseErr)
		}
		rec.PublishedAt = &ts
	}

	for _, item := range []struct {
		raw    string
		target *[]string
	}{
		{postalExplicit, &rec.PostalExplicit},
		{postalEstimated, &rec.PostalEstimated},
		{subjectsPrimary, &rec.SubjectsPrimary},
		{subjectsFallback, &rec.SubjectsFallback},
		{levels, &rec.Levels},
	} {
		if err := decodeStrings(item.raw, item.target); err != nil {
			return record.Record{}, err
		}
	}
	if availability != "" {
		if err := json.Unmarshal([]byte(availability), &rec.Availability); err != nil {
			return record.Record{}, fmt.Errorf("unmarshal availability: %w", err)
		}
	}
	return rec, nil
}

func decodeStrings(raw string, target *[]string) error {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	if len(values) > 0 {
		*target = values
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
