package analytics

import (
	"github.com/montanaflynn/stats"
)

// AccuracySpread summarises how category accuracies are distributed.
type AccuracySpread struct {
	Categories int     `json:"categories"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	StdDev     float64 `json:"std_dev"`
}

// Spread computes unweighted statistics over per-category accuracies.
func Spread(accuracies []CategoryAccuracy) AccuracySpread {
	if len(accuracies) == 0 {
		return AccuracySpread{}
	}

	data := make(stats.Float64Data, 0, len(accuracies))
	for _, entry := range accuracies {
		data = append(data, entry.Accuracy)
	}

	spread := AccuracySpread{Categories: len(data)}
	// errors only occur for empty input, which is excluded above
	spread.Mean, _ = stats.Mean(data)
	spread.Median, _ = stats.Median(data)
	spread.Min, _ = stats.Min(data)
	spread.Max, _ = stats.Max(data)
	spread.StdDev, _ = stats.StandardDeviationPopulation(data)
	return spread
}
