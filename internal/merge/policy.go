package merge

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"corral/internal/record"
	"corral/internal/signal"
)

// ErrClusterTooSmall is returned when fewer than two mergeable records
// remain after same-source conflicts are resolved.
var ErrClusterTooSmall = errors.New("cluster needs at least two records")

// Policy resolves a duplicate cluster into one canonical outcome.
type Policy struct {
	newID func() string
	now   func() time.Time
}

// NewPolicy returns a policy that mints UUID group identifiers.
func NewPolicy() Policy {
	return Policy{newID: uuid.NewString, now: time.Now}
}

// Merge computes the canonical representation for a transitively linked
// cluster. Field resolution runs independently per field; every chosen value
// carries the reference of the member it came from. Record codes are not
// merged: they are source-specific identifiers, not a shared fact, and stay
// on their members.
//
// When a member already belongs to a group, that group's identifier is
// reused (the smallest when several existing groups are being joined), so
// re-merging is stable. Records that share a source with another member
// cannot be duplicates of each other; a committed member keeps its place and
// among uncommitted ones the later-published record is ejected and left for
// a future pass.
func (p Policy) Merge(members []record.Record) (Outcome, error) {
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.now == nil {
		p.now = time.Now
	}

	sorted := make([]record.Record, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ref.Less(sorted[j].Ref) })

	kept, ejected := resolveSourceConflicts(sorted)
	if len(kept) < 2 {
		return Outcome{Ejected: ejected}, ErrClusterTooSmall
	}

	out := Outcome{
		GroupID:   existingGroupID(kept),
		Canonical: make(map[string]CanonicalValue, 6),
		DecidedAt: p.now().UTC(),
		Ejected:   ejected,
	}
	if out.GroupID == "" {
		out.GroupID = p.newID()
	}
	for _, member := range kept {
		out.Members = append(out.Members, member.Ref)
	}

	if earliest := earliestPublished(kept); earliest != nil {
		out.Canonical[FieldPublishedAt] = CanonicalValue{
			Value:  earliest.PublishedAt.UTC().Format(time.RFC3339),
			Source: earliest.Ref,
		}
	}

	best := bestQuality(kept)
	if postal, ok := signal.ExtractPostal(best); ok {
		out.Canonical[FieldPostal] = CanonicalValue{Value: postal.Value, Source: best.Ref}
	}
	if subjects := signal.Subjects(best); len(subjects) > 0 {
		out.Canonical[FieldSubjects] = CanonicalValue{Value: strings.Join(subjects, ","), Source: best.Ref}
	}
	if levels := signal.Levels(best); len(levels) > 0 {
		out.Canonical[FieldLevels] = CanonicalValue{Value: strings.Join(levels, ","), Source: best.Ref}
	}

	p.resolveRates(&out, kept)

	return out, nil
}

// resolveRates widens the canonical rate to the union interval: legitimate
// rate variation across sources is expected, so no single source wins.
func (p Policy) resolveRates(out *Outcome, members []record.Record) {
	var minVal, maxVal CanonicalValue
	haveMin, haveMax := false, false
	for _, member := range members {
		if member.RateMin != nil {
			if !haveMin || *member.RateMin < mustAtoi(minVal.Value) {
				minVal = CanonicalValue{Value: strconv.Itoa(*member.RateMin), Source: member.Ref}
				haveMin = true
			}
		}
		if member.RateMax != nil {
			if !haveMax || *member.RateMax > mustAtoi(maxVal.Value) {
				maxVal = CanonicalValue{Value: strconv.Itoa(*member.RateMax), Source: member.Ref}
				haveMax = true
			}
		}
	}
	if haveMin {
		out.Canonical[FieldRateMin] = minVal
	}
	if haveMax {
		out.Canonical[FieldRateMax] = maxVal
	}
}

// resolveSourceConflicts keeps at most one record per source: records from
// one source are never duplicates of each other, so a transitive cluster
// that pulled in two of them is over-linked. A record already committed to
// a group always stays (it must not lose its membership to a newcomer);
// otherwise the earlier-published record wins, with missing published_at
// losing the tie. The rest are ejected.
func resolveSourceConflicts(sorted []record.Record) (kept []record.Record, ejected []record.Ref) {
	bySource := make(map[string]int)
	for _, member := range sorted {
		idx, seen := bySource[member.SourceID]
		if !seen {
			bySource[member.SourceID] = len(kept)
			kept = append(kept, member)
			continue
		}
		if outranks(member, kept[idx]) {
			ejected = append(ejected, kept[idx].Ref)
			kept[idx] = member
		} else {
			ejected = append(ejected, member.Ref)
		}
	}
	return kept, ejected
}

func outranks(a, b record.Record) bool {
	if a.Merged() != b.Merged() {
		return a.Merged()
	}
	return publishedBefore(a, b)
}

func publishedBefore(a, b record.Record) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	default:
		return a.PublishedAt.Before(*b.PublishedAt)
	}
}

func earliestPublished(members []record.Record) *record.Record {
	var earliest *record.Record
	for i := range members {
		member := &members[i]
		if member.PublishedAt == nil {
			continue
		}
		if earliest == nil || member.PublishedAt.Before(*earliest.PublishedAt) {
			earliest = member
		}
	}
	return earliest
}

// bestQuality picks the member with the highest extraction quality score,
// breaking ties by earliest published_at and then by reference order (the
// input is already sorted by Ref, which keeps the choice deterministic).
func bestQuality(members []record.Record) record.Record {
	best := members[0]
	for _, member := range members[1:] {
		switch {
		case member.QualityScore > best.QualityScore:
			best = member
		case member.QualityScore == best.QualityScore && publishedBefore(member, best):
			best = member
		}
	}
	return best
}

// existingGroupID returns the smallest group identifier already attached to
// a member, or empty when the cluster is entirely new.
func existingGroupID(members []record.Record) string {
	id := ""
	for _, member := range members {
		if member.GroupID == "" {
			continue
		}
		if id == "" || member.GroupID < id {
			id = member.GroupID
		}
	}
	return id
}

func mustAtoi(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}
