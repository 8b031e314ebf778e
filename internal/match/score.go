package match

import (
	"log/slog"
	"time"

	"corral/internal/config"
	"corral/internal/logging"
	"corral/internal/record"
	"corral/internal/signal"
)

// Temporal proximity bands. Within the full band the signal contributes its
// whole weight; the outer bands contribute reduced fractions.
const (
	temporalFullBand  = 48 * time.Hour
	temporalMidBand   = 96 * time.Hour
	temporalOuterBand = 168 * time.Hour

	temporalMidFraction   = 0.6
	temporalOuterFraction = 0.3

	// reducedPostalFraction is the credit for a district match within the
	// digit-edit tolerance, relative to an exact match.
	reducedPostalFraction = 0.9

	// availabilityOverlapRatio is the share of listed weekdays that must
	// have overlapping intervals for the weak availability signal to fire.
	availabilityOverlapRatio = 0.5
)

// maxScore is the saturation ceiling. Raw sums above it clamp down to it.
const maxScore = 100.0

// Breakdown records each signal's contribution to a pair score. Raw is the
// pre-clamp sum; Total is clamped into [0, maxScore].
type Breakdown struct {
	Postal       float64 `json:"postal"`
	Subjects     float64 `json:"subjects"`
	Levels       float64 `json:"levels"`
	Rate         float64 `json:"rate"`
	Temporal     float64 `json:"temporal"`
	Code         float64 `json:"code"`
	Availability float64 `json:"availability"`
	Raw          float64 `json:"raw"`
	Total        float64 `json:"total"`
}

// Scorer computes bounded similarity scores for record pairs. It is safe for
// concurrent use; all state is immutable after construction.
type Scorer struct {
	weights   Weights
	tolerance int
	logger    *slog.Logger
}

// NewScorer builds a scorer from configuration. logger may be nil.
func NewScorer(cfg *config.Config, logger *slog.Logger) *Scorer {
	return &Scorer{
		weights:   WeightsFromConfig(cfg.Matching),
		tolerance: cfg.Matching.FuzzyPostalTolerance,
		logger:    logging.NewComponentLogger(logger, "scorer"),
	}
}

// Score computes the similarity between two records. It is symmetric:
// Score(a, b) and Score(b, a) produce identical breakdowns. Each signal
// contributes only when present on both sides; a missing or malformed signal
// degrades the score to the remaining evidence rather than erroring.
func (s *Scorer) Score(a, b record.Record) Breakdown {
	var out Breakdown

	out.Postal = s.postalContribution(a, b)
	out.Subjects = s.weights.Subjects * jaccard(signal.Subjects(a), signal.Subjects(b))
	out.Levels = s.weights.Levels * jaccard(signal.Levels(a), signal.Levels(b))
	out.Rate = s.rateContribution(a, b)
	out.Temporal = s.temporalContribution(a, b)
	out.Code = s.codeContribution(a, b)
	out.Availability = s.availabilityContribution(a, b)

	out.Raw = out.Postal + out.Subjects + out.Levels + out.Rate +
		out.Temporal + out.Code + out.Availability
	out.Total = out.Raw
	if out.Total > maxScore {
		out.Total = maxScore
	}
	if out.Total < 0 {
		out.Total = 0
	}

	if out.Raw > maxScore {
		s.logger.Debug("score saturated",
			logging.String(logging.FieldRecord, a.Ref.String()),
			logging.String("other", b.Ref.String()),
			logging.Float64("raw", out.Raw),
		)
	}
	return out
}

func (s *Scorer) postalContribution(a, b record.Record) float64 {
	pa, okA := signal.ExtractPostal(a)
	pb, okB := signal.ExtractPostal(b)
	s.reportMalformed(a, pa.Malformed)
	s.reportMalformed(b, pb.Malformed)
	if !okA || !okB {
		return 0
	}
	if pa.Value == pb.Value {
		return s.weights.Postal
	}
	if pa.District == pb.District && digitDistance(pa.Value, pb.Value) <= s.tolerance {
		return s.weights.Postal * reducedPostalFraction
	}
	return 0
}

func (s *Scorer) reportMalformed(rec record.Record, values []string) {
	for _, value := range values {
		s.logger.Debug("malformed postal value skipped",
			logging.String(logging.FieldRecord, rec.Ref.String()),
			logging.String(logging.FieldSignal, "postal"),
			logging.String("value", value),
		)
	}
}

func (s *Scorer) rateContribution(a, b record.Record) float64 {
	minA, maxA, okA := signal.Rate(a)
	minB, maxB, okB := signal.Rate(b)
	if !okA || !okB {
		return 0
	}
	if minA <= maxB && minB <= maxA {
		return s.weights.Rate
	}
	return 0
}

func (s *Scorer) temporalContribution(a, b record.Record) float64 {
	if a.PublishedAt == nil || b.PublishedAt == nil {
		return 0
	}
	delta := a.PublishedAt.Sub(*b.PublishedAt)
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta <= temporalFullBand:
		return s.weights.Temporal
	case delta <= temporalMidBand:
		return s.weights.Temporal * temporalMidFraction
	case delta <= temporalOuterBand:
		return s.weights.Temporal * temporalOuterFraction
	default:
		return 0
	}
}

func (s *Scorer) codeContribution(a, b record.Record) float64 {
	// Codes are source-specific formats; only a byte-exact coincidence is
	// evidence. No fuzzy matching.
	if a.Code == "" || b.Code == "" {
		return 0
	}
	if a.Code == b.Code {
		return s.weights.Code
	}
	return 0
}

func (s *Scorer) availabilityContribution(a, b record.Record) float64 {
	if availabilitySimilar(a.Availability, b.Availability) {
		return s.weights.Availability
	}
	return 0
}

// availabilitySimilar is a coarse heuristic: at least half of the weekdays
// either record lists must have overlapping intervals on both sides.
func availabilitySimilar(a, b record.Availability) bool {
	daysA := a.Days()
	daysB := b.Days()
	if len(daysA) == 0 || len(daysB) == 0 {
		return false
	}

	union := make(map[time.Weekday]struct{}, len(daysA)+len(daysB))
	for _, day := range daysA {
		union[day] = struct{}{}
	}
	for _, day := range daysB {
		union[day] = struct{}{}
	}

	shared := 0
	for day := range union {
		if intervalsOverlap(a[day], b[day]) {
			shared++
		}
	}
	return float64(shared) >= availabilityOverlapRatio*float64(len(union))
}

func intervalsOverlap(a, b []record.Interval) bool {
	for _, ia := range a {
		for _, ib := range b {
			if ia.Overlaps(ib) {
				return true
			}
		}
	}
	return false
}

// jaccard computes intersection-over-union for two sorted token sets.
// Returns 0 when either set is empty: no evidence, not dissimilarity.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, intersection := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			intersection++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// digitDistance counts positions where two equal-length digit strings
// differ. Unequal lengths are treated as maximally distant.
func digitDistance(a, b string) int {
	if len(a) != len(b) {
		return len(a) + len(b)
	}
	distance := 0
	for i := range a {
		if a[i] != b[i] {
			distance++
		}
	}
	return distance
}
