package signal

import (
	"testing"

	"corral/internal/record"
)

func TestExtractPostalPrefersExplicit(t *testing.T) {
	rec := record.Record{
		PostalExplicit:  []string{"520240"},
		PostalEstimated: []string{"650123"},
	}
	postal, ok := ExtractPostal(rec)
	if !ok {
		t.Fatal("expected a postal value")
	}
	if postal.Value != "520240" || postal.District != "52" {
		t.Fatalf("unexpected postal %+v", postal)
	}
}

func TestExtractPostalFallsBackToEstimated(t *testing.T) {
	rec := record.Record{
		PostalExplicit:  []string{"", "12345"},
		PostalEstimated: []string{"650123"},
	}
	postal, ok := ExtractPostal(rec)
	if !ok || postal.Value != "650123" {
		t.Fatalf("expected estimated fallback, got %+v ok=%v", postal, ok)
	}
	if len(postal.Malformed) != 1 || postal.Malformed[0] != "12345" {
		t.Fatalf("expected 12345 reported malformed, got %v", postal.Malformed)
	}
}

func TestExtractPostalAbsent(t *testing.T) {
	if _, ok := ExtractPostal(record.Record{}); ok {
		t.Fatal("empty record should have no postal")
	}
}

func TestSubjectsPrimaryWins(t *testing.T) {
	rec := record.Record{
		SubjectsPrimary:  []string{"Math", " MATH ", "Physics"},
		SubjectsFallback: []string{"Chemistry"},
	}
	got := Subjects(rec)
	want := []string{"math", "physics"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSubjectsFallbackWhenPrimaryEmpty(t *testing.T) {
	rec := record.Record{
		SubjectsPrimary:  []string{"  "},
		SubjectsFallback: []string{"English"},
	}
	got := Subjects(rec)
	if len(got) != 1 || got[0] != "english" {
		t.Fatalf("expected fallback subjects, got %v", got)
	}
}

func TestRateRequiresBothBounds(t *testing.T) {
	min := 40
	rec := record.Record{RateMin: &min}
	if _, _, ok := Rate(rec); ok {
		t.Fatal("partial rate must be treated as absent")
	}

	max := 55
	rec.RateMax = &max
	lo, hi, ok := Rate(rec)
	if !ok || lo != 40 || hi != 55 {
		t.Fatalf("expected [40,55], got [%d,%d] ok=%v", lo, hi, ok)
	}
}
