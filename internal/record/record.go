package record

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a record.
type Status string

const (
	StatusOpen     Status = "open"
	StatusConsumed Status = "consumed"
	StatusExpired  Status = "expired"
)

var allStatuses = []Status{StatusOpen, StatusConsumed, StatusExpired}

// ParseStatus validates and normalizes a status string.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown record status %q", value)
}

// Ref identifies a record by its originating source and the identifier that
// source assigned. The pair is unique and never changes.
type Ref struct {
	SourceID   string `json:"source_id"`
	ExternalID string `json:"external_id"`
}

// String renders the reference in source/external form for logs and keys.
func (r Ref) String() string {
	return r.SourceID + "/" + r.ExternalID
}

// Less orders references lexicographically by source then external id. Used
// wherever the engine needs a deterministic iteration order.
func (r Ref) Less(other Ref) bool {
	if r.SourceID != other.SourceID {
		return r.SourceID < other.SourceID
	}
	return r.ExternalID < other.ExternalID
}

// Interval is a time-of-day range on a single weekday, in minutes from
// midnight. Estimated marks intervals inferred by upstream extraction rather
// than stated explicitly in the posting.
type Interval struct {
	Start     int  `json:"start"`
	End       int  `json:"end"`
	Estimated bool `json:"estimated,omitempty"`
}

// Overlaps reports whether two intervals share any time.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Availability holds per-weekday interval lists. Days with no entries carry
// no availability signal.
type Availability map[time.Weekday][]Interval

// Days returns the weekdays that have at least one interval.
func (a Availability) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(a))
	for day, intervals := range a {
		if len(intervals) > 0 {
			days = append(days, day)
		}
	}
	return days
}

// Record is one posting as produced by upstream extraction. Every field
// beyond Ref is optional; matching logic must treat absence as "no evidence"
// rather than an error.
type Record struct {
	Ref

	// Code is the source-specific posting code. Different sources issue
	// independently formatted codes for the same real-world posting, so it
	// is only comparable byte-for-byte.
	Code string `json:"code,omitempty"`

	PostalExplicit  []string `json:"postal_explicit,omitempty"`
	PostalEstimated []string `json:"postal_estimated,omitempty"`

	SubjectsPrimary  []string `json:"subjects_primary,omitempty"`
	SubjectsFallback []string `json:"subjects_fallback,omitempty"`
	Levels           []string `json:"levels,omitempty"`

	RateMin *int `json:"rate_min,omitempty"`
	RateMax *int `json:"rate_max,omitempty"`

	PublishedAt  *time.Time   `json:"published_at,omitempty"`
	Availability Availability `json:"availability,omitempty"`

	// QualityScore reflects extraction completeness. It is informational
	// for matching but drives field precedence when records merge.
	QualityScore int `json:"quality_score"`

	Status  Status `json:"status"`
	GroupID string `json:"group_id,omitempty"`

	// Version is the store's optimistic-concurrency token. Zero for records
	// that have never been persisted.
	Version int64 `json:"-"`
}

// Merged reports whether the record already belongs to a duplicate group.
func (r Record) Merged() bool {
	return r.GroupID != ""
}
