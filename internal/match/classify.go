package match

import "corral/internal/config"

// Tier is the confidence bucket derived from a similarity score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierNone   Tier = "none"
)

// AutoMerge reports whether the tier is strong enough to merge without
// manual review.
func (t Tier) AutoMerge() bool {
	return t == TierHigh || t == TierMedium
}

// Classifier maps scores onto tiers. Lower bounds are inclusive: a score
// sitting exactly on a threshold lands in the higher tier.
type Classifier struct {
	thresholds config.Thresholds
}

// NewClassifier builds a classifier from validated thresholds.
func NewClassifier(thresholds config.Thresholds) Classifier {
	return Classifier{thresholds: thresholds}
}

// Classify buckets a similarity score.
func (c Classifier) Classify(score float64) Tier {
	switch {
	case score >= c.thresholds.High:
		return TierHigh
	case score >= c.thresholds.Medium:
		return TierMedium
	case score >= c.thresholds.Low:
		return TierLow
	default:
		return TierNone
	}
}
