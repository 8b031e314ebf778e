package match

import (
	"testing"

	"corral/internal/config"
)

func TestClassifyBoundariesAreInclusive(t *testing.T) {
	classifier := NewClassifier(config.Default().Thresholds)

	cases := []struct {
		score float64
		want  Tier
	}{
		{100, TierHigh},
		{90, TierHigh},
		{89.9, TierMedium},
		{70, TierMedium},
		{69.9, TierLow},
		{55, TierLow},
		{54.9, TierNone},
		{0, TierNone},
	}
	for _, tc := range cases {
		if got := classifier.Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestAutoMergeTiers(t *testing.T) {
	if !TierHigh.AutoMerge() || !TierMedium.AutoMerge() {
		t.Fatal("high and medium must auto-merge")
	}
	if TierLow.AutoMerge() || TierNone.AutoMerge() {
		t.Fatal("low and none must never auto-merge")
	}
}
