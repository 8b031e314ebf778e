package config

const (
	defaultDataDir = "~/.local/share/corral"
	defaultLogDir  = "~/.local/share/corral/logs"

	defaultWeightPostal           = 50
	defaultWeightSubjects         = 35
	defaultWeightLevels           = 25
	defaultWeightRate             = 15
	defaultWeightTemporal         = 10
	defaultWeightCode             = 10
	defaultWeightTimeAvailability = 5

	defaultTimeWindowDays       = 7
	defaultFuzzyPostalTolerance = 2

	defaultThresholdHigh   = 90
	defaultThresholdMedium = 70
	defaultThresholdLow    = 55

	defaultPassIntervalMinutes = 15
	defaultCommitRetries       = 3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Matching: Matching{
			WeightPostal:           defaultWeightPostal,
			WeightSubjects:         defaultWeightSubjects,
			WeightLevels:           defaultWeightLevels,
			WeightRate:             defaultWeightRate,
			WeightTemporal:         defaultWeightTemporal,
			WeightCode:             defaultWeightCode,
			WeightTimeAvailability: defaultWeightTimeAvailability,
			TimeWindowDays:         defaultTimeWindowDays,
			FuzzyPostalTolerance:   defaultFuzzyPostalTolerance,
		},
		Thresholds: Thresholds{
			High:   defaultThresholdHigh,
			Medium: defaultThresholdMedium,
			Low:    defaultThresholdLow,
		},
		Workflow: Workflow{
			PassIntervalMinutes: defaultPassIntervalMinutes,
			CommitRetries:       defaultCommitRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
