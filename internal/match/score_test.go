package match

import (
	"testing"
	"time"

	"corral/internal/config"
	"corral/internal/record"
)

func testScorer(t *testing.T) *Scorer {
	t.Helper()
	cfg := config.Default()
	return NewScorer(&cfg, nil)
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func fullMatchPair() (record.Record, record.Record) {
	a := record.Record{
		Ref:             record.Ref{SourceID: "alpha", ExternalID: "1"},
		Code:            "AX-100",
		PostalExplicit:  []string{"520240"},
		SubjectsPrimary: []string{"MATH"},
		Levels:          []string{"SEC3"},
		RateMin:         intPtr(40),
		RateMax:         intPtr(50),
		PublishedAt:     timePtr(baseTime),
		Status:          record.StatusOpen,
	}
	b := record.Record{
		Ref:             record.Ref{SourceID: "beta", ExternalID: "9"},
		Code:            "TT/77",
		PostalExplicit:  []string{"520240"},
		SubjectsPrimary: []string{"math"},
		Levels:          []string{"sec3"},
		RateMin:         intPtr(40),
		RateMax:         intPtr(55),
		PublishedAt:     timePtr(baseTime.Add(90 * time.Minute)),
		Status:          record.StatusOpen,
	}
	return a, b
}

func TestScoreStrongMatchSaturates(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()

	got := scorer.Score(a, b)
	// 50 postal + 35 subjects + 25 levels + 15 rate + 10 temporal = 135 raw.
	if got.Raw != 135 {
		t.Fatalf("raw = %v, want 135", got.Raw)
	}
	if got.Total != 100 {
		t.Fatalf("total = %v, want 100 (clamped)", got.Total)
	}
	if got.Code != 0 {
		t.Fatalf("differing codes must contribute 0, got %v", got.Code)
	}
}

func TestScoreSymmetry(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	b.PostalExplicit = []string{"520241"}
	b.SubjectsPrimary = []string{"math", "physics"}

	ab := scorer.Score(a, b)
	ba := scorer.Score(b, a)
	if ab != ba {
		t.Fatalf("score not symmetric: %+v vs %+v", ab, ba)
	}
}

func TestScoreFuzzyPostalAndPartialSubjects(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	b.PostalExplicit = []string{"520241"} // same district, 1 digit off
	b.SubjectsPrimary = []string{"MATH", "PHYSICS"}
	b.Levels = nil
	a.RateMin, a.RateMax = nil, nil

	got := scorer.Score(a, b)
	if got.Postal != 45 {
		t.Fatalf("fuzzy postal = %v, want 45", got.Postal)
	}
	if got.Subjects != 17.5 {
		t.Fatalf("subjects = %v, want 17.5 (Jaccard 0.5)", got.Subjects)
	}
	if got.Levels != 0 || got.Rate != 0 {
		t.Fatalf("absent signals must contribute 0: %+v", got)
	}
	if got.Total != 72.5 {
		t.Fatalf("total = %v, want 72.5", got.Total)
	}
}

func TestScorePostalBeyondToleranceScoresZero(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	b.PostalExplicit = []string{"521999"} // same district, 3 digits off

	got := scorer.Score(a, b)
	if got.Postal != 0 {
		t.Fatalf("postal beyond tolerance = %v, want 0", got.Postal)
	}
}

func TestScoreUnrelatedPairStaysBelowLowTier(t *testing.T) {
	scorer := testScorer(t)
	a := record.Record{
		Ref:             record.Ref{SourceID: "alpha", ExternalID: "1"},
		PostalExplicit:  []string{"110011"},
		SubjectsPrimary: []string{"math"},
		Levels:          []string{"sec1"},
		PublishedAt:     timePtr(baseTime),
	}
	b := record.Record{
		Ref:             record.Ref{SourceID: "beta", ExternalID: "2"},
		PostalExplicit:  []string{"640042"},
		SubjectsPrimary: []string{"violin"},
		Levels:          []string{"adult"},
		PublishedAt:     timePtr(baseTime.Add(10 * time.Hour)),
	}

	got := scorer.Score(a, b)
	if got.Total > 15 {
		t.Fatalf("unrelated pair scored %v, want <= 15", got.Total)
	}
}

func TestScoreMissingPostalDegradesGracefully(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	a.PostalExplicit = nil
	a.PostalEstimated = nil

	got := scorer.Score(a, b)
	if got.Postal != 0 {
		t.Fatalf("missing postal must contribute 0, got %v", got.Postal)
	}
	// 35 subjects + 25 levels + 15 rate + 10 temporal.
	if got.Total != 85 {
		t.Fatalf("total = %v, want 85 from remaining signals", got.Total)
	}
}

func TestScoreMonotonicUnderAddedSignal(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	a.RateMin, a.RateMax = nil, nil
	b.Levels = nil

	without := scorer.Score(a, b)

	b.Levels = []string{"sec3"}
	with := scorer.Score(a, b)
	if with.Total < without.Total {
		t.Fatalf("adding a matching signal decreased score: %v -> %v", without.Total, with.Total)
	}
}

func TestScoreTemporalBands(t *testing.T) {
	scorer := testScorer(t)
	cases := []struct {
		gap  time.Duration
		want float64
	}{
		{24 * time.Hour, 10},
		{72 * time.Hour, 6},
		{120 * time.Hour, 3},
		{200 * time.Hour, 0},
	}
	for _, tc := range cases {
		a, b := fullMatchPair()
		b.PublishedAt = timePtr(baseTime.Add(tc.gap))
		got := scorer.Score(a, b)
		if got.Temporal != tc.want {
			t.Fatalf("gap %v: temporal = %v, want %v", tc.gap, got.Temporal, tc.want)
		}
	}
}

func TestScoreRecordCodeExactOnly(t *testing.T) {
	scorer := testScorer(t)
	a, b := fullMatchPair()
	a.Code, b.Code = "AX-100", "AX-100"
	if got := scorer.Score(a, b); got.Code != 10 {
		t.Fatalf("exact code = %v, want 10", got.Code)
	}

	b.Code = "ax-100" // case differs: not byte-exact
	if got := scorer.Score(a, b); got.Code != 0 {
		t.Fatalf("near-miss code = %v, want 0", got.Code)
	}
}

func TestAvailabilityHeuristic(t *testing.T) {
	morning := record.Interval{Start: 9 * 60, End: 12 * 60}
	evening := record.Interval{Start: 19 * 60, End: 21 * 60}

	a := record.Availability{
		time.Monday:    {morning},
		time.Wednesday: {evening},
	}
	b := record.Availability{
		time.Monday:    {{Start: 10 * 60, End: 11 * 60}},
		time.Wednesday: {{Start: 20 * 60, End: 22 * 60}},
	}
	if !availabilitySimilar(a, b) {
		t.Fatal("overlapping weekday intervals should be similar")
	}

	c := record.Availability{
		time.Saturday: {morning},
	}
	if availabilitySimilar(a, c) {
		t.Fatal("disjoint weekdays should not be similar")
	}
	if availabilitySimilar(a, record.Availability{}) {
		t.Fatal("empty availability carries no signal")
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		a, b []string
		want float64
	}{
		{[]string{"math"}, []string{"math"}, 1},
		{[]string{"math"}, []string{"math", "physics"}, 0.5},
		{[]string{"math"}, []string{"violin"}, 0},
		{nil, []string{"math"}, 0},
	}
	for _, tc := range cases {
		if got := jaccard(tc.a, tc.b); got != tc.want {
			t.Fatalf("jaccard(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
