package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"app/models"
)

func TestDailyDemandFillsMissingDaysWithZero(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := []models.SalesPoint{
		{ProductID: "item-1", Date: start, Quantity: 4},
		{ProductID: "item-1", Date: start.AddDate(0, 0, 3), Quantity: 2},
		{ProductID: "item-1", Date: start.AddDate(0, 0, 6), Quantity: 5},
	}

	demand := DailyDemand(series, start, start.AddDate(0, 0, 6))

	assert.Equal(t, []float64{4, 0, 0, 2, 0, 0, 5}, demand)
}

func TestDailyDemandAggregatesSameDay(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := []models.SalesPoint{
		{Date: start.Add(9 * time.Hour), Quantity: 3},
		{Date: start.Add(18 * time.Hour), Quantity: 4},
	}

	demand := DailyDemand(series, start, start)
	assert.Equal(t, []float64{7}, demand)
}

func TestDailyDemandEmptyWindow(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, DailyDemand(nil, start, start.AddDate(0, 0, -1)))
}

func TestDistinctDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := []models.SalesPoint{
		{Date: start},
		{Date: start.Add(4 * time.Hour)}, // same calendar day
		{Date: start.AddDate(0, 0, 2)},
	}
	assert.Equal(t, 2, DistinctDays(series))
}

func TestAutocorrelationPeriodicSeries(t *testing.T) {
	xs := make([]float64, 56)
	for i := range xs {
		xs[i] = float64(i % 7)
	}

	assert.InDelta(t, 1.0, Autocorrelation(xs, 7), 0.15)
	assert.Less(t, Autocorrelation(xs, 3), 0.5)
}

func TestAutocorrelationDegenerateInputs(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	assert.Zero(t, Autocorrelation(flat, 3))
	assert.Zero(t, Autocorrelation([]float64{1, 2}, 5))
	assert.Zero(t, Autocorrelation(flat, 0))
}

func TestNaiveResidualStdDevConstantSeries(t *testing.T) {
	assert.Zero(t, naiveResidualStdDev(repeatDemand(40, 10), 90))
}

func TestOlsSlope(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3, 5, 7, 9, 11} // y = 1 + 2x

	slope, ok := olsSlope(x, y)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, slope, 1e-9)
}

func TestOlsSlopeUndefinedWithoutVariation(t *testing.T) {
	_, ok := olsSlope([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = olsSlope([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestWeightedPercentile(t *testing.T) {
	values := []float64{15, 10, 12}
	weights := []float64{20, 100, 80}

	assert.Equal(t, 10.0, weightedPercentile(values, weights, 25))
	assert.Equal(t, 12.0, weightedPercentile(values, weights, 75))
	assert.Equal(t, 15.0, weightedPercentile(values, weights, 100))
}

func TestZScoreServiceLevels(t *testing.T) {
	assert.InDelta(t, 1.645, zScore(0.95), 0.01)
	assert.InDelta(t, 1.96, zScore(0.975), 0.01)
	assert.InDelta(t, 0, zScore(0.5), 1e-6)
}
