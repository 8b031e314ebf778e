package match

import "corral/internal/config"

// Weights is the maximum contribution of each matching signal. Values come
// from configuration and are immutable for the duration of a pass.
type Weights struct {
	Postal       float64
	Subjects     float64
	Levels       float64
	Rate         float64
	Temporal     float64
	Code         float64
	Availability float64
}

// WeightsFromConfig copies the configured weight table.
func WeightsFromConfig(m config.Matching) Weights {
	return Weights{
		Postal:       m.WeightPostal,
		Subjects:     m.WeightSubjects,
		Levels:       m.WeightLevels,
		Rate:         m.WeightRate,
		Temporal:     m.WeightTemporal,
		Code:         m.WeightCode,
		Availability: m.WeightTimeAvailability,
	}
}
