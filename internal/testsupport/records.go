package testsupport

import (
	"time"

	"corral/internal/record"
)

// RecordOption customizes a test record.
type RecordOption func(*record.Record)

// NewRecord builds an open record with sensible defaults for tests.
func NewRecord(sourceID, externalID string, opts ...RecordOption) record.Record {
	rec := record.Record{
		Ref:             record.Ref{SourceID: sourceID, ExternalID: externalID},
		PostalExplicit:  []string{"560101"},
		SubjectsPrimary: []string{"mathematics"},
		Levels:          []string{"secondary"},
		QualityScore:    50,
		Status:          record.StatusOpen,
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// WithPostal replaces the explicit postal codes.
func WithPostal(codes ...string) RecordOption {
	return func(rec *record.Record) {
		rec.PostalExplicit = codes
	}
}

// WithEstimatedPostal replaces the estimated postal codes and clears the
// explicit ones.
func WithEstimatedPostal(codes ...string) RecordOption {
	return func(rec *record.Record) {
		rec.PostalExplicit = nil
		rec.PostalEstimated = codes
	}
}

// WithSubjects replaces the primary subjects.
func WithSubjects(subjects ...string) RecordOption {
	return func(rec *record.Record) {
		rec.SubjectsPrimary = subjects
	}
}

// WithLevels replaces the level tokens.
func WithLevels(levels ...string) RecordOption {
	return func(rec *record.Record) {
		rec.Levels = levels
	}
}

// WithRate sets both rate bounds.
func WithRate(min, max int) RecordOption {
	return func(rec *record.Record) {
		rec.RateMin = &min
		rec.RateMax = &max
	}
}

// WithPublishedAt sets the publication timestamp.
func WithPublishedAt(ts time.Time) RecordOption {
	return func(rec *record.Record) {
		rec.PublishedAt = &ts
	}
}

// WithCode sets the posting code.
func WithCode(code string) RecordOption {
	return func(rec *record.Record) {
		rec.Code = code
	}
}

// WithQuality sets the source quality score.
func WithQuality(score int) RecordOption {
	return func(rec *record.Record) {
		rec.QualityScore = score
	}
}

// WithStatus overrides the record status.
func WithStatus(status record.Status) RecordOption {
	return func(rec *record.Record) {
		rec.Status = status
	}
}

// WithAvailability sets the weekly availability map.
func WithAvailability(avail record.Availability) RecordOption {
	return func(rec *record.Record) {
		rec.Availability = avail
	}
}
