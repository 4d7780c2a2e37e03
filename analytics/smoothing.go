package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"app/models"
)

// SmoothingPredictor is the default deterministic predictor: exponential
// smoothing of the daily demand level combined with weekday seasonal
// indices. Identical input always yields identical output.
type SmoothingPredictor struct {
	// Alpha is the smoothing factor in (0,1]. Zero means the 0.3 default.
	Alpha float64
}

func (p *SmoothingPredictor) Predict(ctx context.Context, series []models.SalesPoint, horizonDays int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("empty series")
	}

	alpha := p.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}

	firstDay := truncateDay(series[0].Date)
	lastDay := truncateDay(series[len(series)-1].Date)
	demand := DailyDemand(series, firstDay, lastDay)

	indices := weekdayIndices(demand, firstDay)

	// Smooth the deseasonalized series down to a single demand level.
	level := deseasonalize(demand[0], indices[int(firstDay.Weekday())])
	for i := 1; i < len(demand); i++ {
		w := int(firstDay.AddDate(0, 0, i).Weekday())
		level = alpha*deseasonalize(demand[i], indices[w]) + (1-alpha)*level
	}

	estimates := make([]float64, horizonDays)
	for i := 0; i < horizonDays; i++ {
		day := lastDay.AddDate(0, 0, i+1)
		estimates[i] = level * indices[int(day.Weekday())]
	}
	return estimates, nil
}

func deseasonalize(x, index float64) float64 {
	if index > 0 {
		return x / index
	}
	return x
}

// weekdayIndices computes the multiplicative seasonal index per weekday
// (Sunday = 0): average demand on that weekday divided by overall average.
// Flat indices of 1 are used when there are fewer than two full weeks of
// data or no demand at all.
func weekdayIndices(demand []float64, firstDay time.Time) [7]float64 {
	indices := [7]float64{1, 1, 1, 1, 1, 1, 1}

	overall, err := stats.Mean(demand)
	if err != nil || overall <= 0 || len(demand) < 14 {
		return indices
	}

	var sums, counts [7]float64
	for i, q := range demand {
		w := int(firstDay.AddDate(0, 0, i).Weekday())
		sums[w] += q
		counts[w]++
	}
	for w := 0; w < 7; w++ {
		if counts[w] > 0 {
			indices[w] = (sums[w] / counts[w]) / overall
		}
	}
	return indices
}
