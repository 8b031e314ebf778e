package merge

import (
	"time"

	"corral/internal/record"
)

// Canonical field names used in Outcome.Canonical and the store.
const (
	FieldPublishedAt = "published_at"
	FieldPostal      = "postal"
	FieldSubjects    = "subjects"
	FieldLevels      = "levels"
	FieldRateMin     = "rate_min"
	FieldRateMax     = "rate_max"
)

// CanonicalValue is one resolved field value together with the member record
// it was sourced from. Values are stored in their string encoding: RFC3339
// for timestamps, comma-joined sorted tokens for sets, decimal for rates.
type CanonicalValue struct {
	Value  string     `json:"value"`
	Source record.Ref `json:"source"`
}

// Outcome is the persisted result of merging a duplicate cluster.
type Outcome struct {
	GroupID   string                    `json:"group_id"`
	Members   []record.Ref              `json:"members"`
	Canonical map[string]CanonicalValue `json:"canonical_fields"`
	DecidedAt time.Time                 `json:"decided_at"`

	// Ejected lists records removed from the cluster because they shared a
	// source with another member; they stay unmerged for a later pass.
	Ejected []record.Ref `json:"ejected,omitempty"`
}
