package signal

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"corral/internal/record"
)

var postalPattern = regexp.MustCompile(`^[0-9]{6}$`)

var tokenFolder = cases.Fold()

// Postal is the normalized locator signal for one record.
type Postal struct {
	// Value is the first valid 6-digit code, explicit entries first.
	Value string
	// District is the leading two digits of Value.
	District string
	// Malformed lists non-empty entries that failed the 6-digit pattern.
	// They carry no matching evidence but are worth surfacing upstream.
	Malformed []string
}

// ExtractPostal scans postal_explicit then postal_estimated for the first
// strict 6-digit value. ok is false when neither list yields one.
func ExtractPostal(rec record.Record) (Postal, bool) {
	var out Postal
	for _, raw := range append(append([]string{}, rec.PostalExplicit...), rec.PostalEstimated...) {
		candidate := strings.TrimSpace(raw)
		if candidate == "" {
			continue
		}
		if !postalPattern.MatchString(candidate) {
			out.Malformed = append(out.Malformed, candidate)
			continue
		}
		if out.Value == "" {
			out.Value = candidate
			out.District = candidate[:2]
		}
	}
	return out, out.Value != ""
}

// Subjects returns the normalized subject token set: the primary set when it
// is non-empty, otherwise the fallback set. Tokens are case-folded, trimmed,
// deduplicated, and sorted.
func Subjects(rec record.Record) []string {
	source := rec.SubjectsPrimary
	if len(normalizeTokens(source)) == 0 {
		source = rec.SubjectsFallback
	}
	return normalizeTokens(source)
}

// Levels returns the normalized level token set.
func Levels(rec record.Record) []string {
	return normalizeTokens(rec.Levels)
}

// Rate passes the monetary range through unchanged. A partial range (only
// one bound present) is treated as absent: overlap against half an interval
// is not evidence.
func Rate(rec record.Record) (min, max int, ok bool) {
	if rec.RateMin == nil || rec.RateMax == nil {
		return 0, 0, false
	}
	return *rec.RateMin, *rec.RateMax, true
}

func normalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		folded := tokenFolder.String(strings.TrimSpace(token))
		if folded == "" {
			continue
		}
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
