package match

import (
	"sort"
	"time"

	"corral/internal/config"
	"corral/internal/record"
	"corral/internal/signal"
)

// unbucketedKey pools records that have neither a usable postal district nor
// any subject token. The pool is expected to stay small; its members are
// only compared against each other.
const unbucketedKey = "~"

// Pair is an ordered candidate pair. A always carries the smaller Ref so a
// pair has exactly one representation.
type Pair struct {
	A record.Record
	B record.Record
}

// Key uniquely identifies the pair regardless of input order.
func (p Pair) Key() string {
	return p.A.Ref.String() + "|" + p.B.Ref.String()
}

func newPair(a, b record.Record) Pair {
	if b.Ref.Less(a.Ref) {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Selector enumerates the candidate pairs worth scoring out of an open-record
// snapshot. It never yields a same-source pair, drops pairs published further
// apart than the configured window (when both timestamps are known), and
// buckets records so a pass stays near-linear instead of quadratic.
type Selector struct {
	window time.Duration
}

// NewSelector builds a selector from configuration.
func NewSelector(cfg *config.Config) *Selector {
	return &Selector{
		window: time.Duration(cfg.Matching.TimeWindowDays) * 24 * time.Hour,
	}
}

// Pairs returns the deduplicated candidate pairs for the snapshot, in a
// deterministic order.
func (s *Selector) Pairs(records []record.Record) []Pair {
	sorted := make([]record.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ref.Less(sorted[j].Ref) })

	buckets := make(map[string][]int)
	for idx, rec := range sorted {
		for _, key := range bucketKeys(rec) {
			buckets[key] = append(buckets[key], idx)
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]struct{})
	var pairs []Pair
	for _, key := range keys {
		members := buckets[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := sorted[members[i]], sorted[members[j]]
				if !s.eligible(a, b) {
					continue
				}
				pair := newPair(a, b)
				if _, dup := seen[pair.Key()]; dup {
					continue
				}
				seen[pair.Key()] = struct{}{}
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

func (s *Selector) eligible(a, b record.Record) bool {
	// A source never duplicates its own posting.
	if a.SourceID == b.SourceID {
		return false
	}
	// The temporal window is a pruning optimization, not a correctness
	// requirement: pairs missing published_at on either side pass through.
	if a.PublishedAt != nil && b.PublishedAt != nil {
		delta := a.PublishedAt.Sub(*b.PublishedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > s.window {
			return false
		}
	}
	return true
}

// bucketKeys picks the comparison buckets for a record: its postal district
// when one exists, otherwise one bucket per subject token, otherwise the
// shared unbucketed pool.
func bucketKeys(rec record.Record) []string {
	if postal, ok := signal.ExtractPostal(rec); ok {
		return []string{"d:" + postal.District}
	}
	subjects := signal.Subjects(rec)
	if len(subjects) > 0 {
		keys := make([]string, len(subjects))
		for i, token := range subjects {
			keys[i] = "s:" + token
		}
		return keys
	}
	return []string{unbucketedKey}
}
