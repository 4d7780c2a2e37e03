package analytics

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"app/models"
)

// DailyDemand expands a sparse sales series into one quantity per calendar
// day between start and end inclusive. Days with no SalesPoint count as zero
// demand, so means and variances are taken over the full calendar window.
func DailyDemand(series []models.SalesPoint, start, end time.Time) []float64 {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}

	byDay := make(map[time.Time]float64, len(series))
	for _, p := range series {
		byDay[truncateDay(p.Date)] += p.Quantity
	}

	days := int(end.Sub(start).Hours()/24) + 1
	demand := make([]float64, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		demand = append(demand, byDay[d])
	}
	return demand
}

// DistinctDays counts the calendar days covered by a series.
func DistinctDays(series []models.SalesPoint) int {
	seen := make(map[time.Time]struct{}, len(series))
	for _, p := range series {
		seen[truncateDay(p.Date)] = struct{}{}
	}
	return len(seen)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Autocorrelation returns the lag-k autocorrelation coefficient of xs, or 0
// when the series is too short or has no variance at that lag.
func Autocorrelation(xs []float64, lag int) float64 {
	n := len(xs)
	if lag <= 0 || n <= lag+1 {
		return 0
	}

	mean, err := stats.Mean(xs)
	if err != nil {
		return 0
	}

	var num, den float64
	for i := 0; i < n; i++ {
		den += (xs[i] - mean) * (xs[i] - mean)
	}
	if den == 0 {
		return 0
	}
	for i := lag; i < n; i++ {
		num += (xs[i] - mean) * (xs[i-lag] - mean)
	}
	return num / den
}

// naiveResidualStdDev estimates forecast error variability as the standard
// deviation of the one-step naive prediction error (today minus yesterday)
// over the last windowDays observations.
func naiveResidualStdDev(demand []float64, windowDays int) float64 {
	if len(demand) < 2 {
		return 0
	}
	if windowDays < len(demand) {
		demand = demand[len(demand)-windowDays:]
	}

	residuals := make([]float64, 0, len(demand)-1)
	for i := 1; i < len(demand); i++ {
		residuals = append(residuals, demand[i]-demand[i-1])
	}
	if len(residuals) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(residuals)
	if err != nil {
		return 0
	}
	return sd
}

// olsSlope fits y = a + b*x by ordinary least squares and returns b. The
// second return is false when the slope is undefined (fewer than two points
// or no variation in x).
func olsSlope(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	meanX, _ := stats.Mean(x)
	meanY, _ := stats.Mean(y)

	var num, den float64
	for i := range x {
		num += (x[i] - meanX) * (y[i] - meanY)
		den += (x[i] - meanX) * (x[i] - meanX)
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// weightedPercentile returns the smallest value whose cumulative weight
// share reaches pct (0-100). Values need not be sorted.
func weightedPercentile(values, weights []float64, pct float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}

	type vw struct{ v, w float64 }
	pairs := make([]vw, len(values))
	var total float64
	for i := range values {
		pairs[i] = vw{values[i], weights[i]}
		total += weights[i]
	}
	if total <= 0 {
		v, _ := stats.Percentile(values, pct)
		return v
	}
	// insertion sort: price lists per product are short
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].v < pairs[j-1].v; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}

	threshold := total * pct / 100
	var cum float64
	for _, p := range pairs {
		cum += p.w
		if cum >= threshold {
			return p.v
		}
	}
	return pairs[len(pairs)-1].v
}

// zScore converts a one-sided probability (e.g. 0.95 service level) to the
// standard normal quantile.
func zScore(p float64) float64 {
	z := stats.NormPpf(p, 0, 1)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	return z
}
