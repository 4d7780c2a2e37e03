package analytics

import (
	"math"

	"github.com/montanaflynn/stats"

	"app/models"
)

// PricingConfig carries the tunables for one pricing analysis pass. Zero
// values fall back to the documented defaults.
type PricingConfig struct {
	AnomalyThreshold     float64 // fractional deviation, default 0.15
	ReferenceWindowDays  int     // trailing window for the reference median, default 30
	ElasticityWindowDays int     // bucket width for elasticity windows, default 7
}

func (c PricingConfig) withDefaults() PricingConfig {
	if c.AnomalyThreshold <= 0 {
		c.AnomalyThreshold = 0.15
	}
	if c.ReferenceWindowDays <= 0 {
		c.ReferenceWindowDays = 30
	}
	if c.ElasticityWindowDays <= 0 {
		c.ElasticityWindowDays = 7
	}
	return c
}

// DetectAnomalies flags transactions whose unit price deviates from the
// rolling reference by strictly more than the threshold. The reference for a
// transaction is the median unit price of the strictly earlier transactions
// inside the trailing window; a transaction with no earlier window is never
// flagged. The input must be ordered by ascending date.
func DetectAnomalies(transactions []models.TransactionRecord, cfg PricingConfig) []models.PricingAnomaly {
	cfg = cfg.withDefaults()
	anomalies := make([]models.PricingAnomaly, 0)

	for i, tx := range transactions {
		if tx.UnitPrice <= 0 || tx.Quantity <= 0 {
			continue // upstream invariant, defend anyway
		}

		windowStart := truncateDay(tx.Date).AddDate(0, 0, -cfg.ReferenceWindowDays)
		var window []float64
		for j := 0; j < i; j++ {
			prev := transactions[j]
			if prev.UnitPrice <= 0 || prev.Date.Before(windowStart) {
				continue
			}
			window = append(window, prev.UnitPrice)
		}
		if len(window) == 0 {
			continue
		}

		reference, err := stats.Median(window)
		if err != nil || reference <= 0 {
			continue
		}

		deviation := math.Abs(tx.UnitPrice-reference) / reference
		if deviation <= cfg.AnomalyThreshold {
			continue
		}

		direction := models.AnomalyUnder
		if tx.UnitPrice > reference {
			direction = models.AnomalyOver
		}
		anomalies = append(anomalies, models.PricingAnomaly{
			ProductID:      tx.ProductID,
			TransactionID:  tx.TransactionID,
			ObservedPrice:  tx.UnitPrice,
			ReferencePrice: reference,
			DeviationPct:   deviation,
			Direction:      direction,
			RevenueImpact:  math.Abs((tx.UnitPrice - reference) * tx.Quantity),
		})
	}
	return anomalies
}

// AnalyzeSensitivity estimates price elasticity of demand as the log-log
// regression slope of volume against price across consecutive windows. With
// no price variation across windows the elasticity is undefined and reported
// as nil with a reason, never as a spurious zero.
func AnalyzeSensitivity(transactions []models.TransactionRecord, cfg PricingConfig) models.ElasticityEstimate {
	cfg = cfg.withDefaults()
	estimate := models.ElasticityEstimate{}
	if len(transactions) == 0 {
		estimate.Reason = "no transactions"
		return estimate
	}
	estimate.ProductID = transactions[0].ProductID

	prices, volumes := windowAverages(transactions, cfg.ElasticityWindowDays)
	if len(prices) < 2 {
		estimate.Reason = "not enough windows"
		return estimate
	}

	varied := false
	for i := 1; i < len(prices); i++ {
		if prices[i] != prices[0] {
			varied = true
			break
		}
	}
	if !varied {
		estimate.Reason = "no price variation"
		return estimate
	}

	logP := make([]float64, len(prices))
	logQ := make([]float64, len(prices))
	for i := range prices {
		logP[i] = math.Log(prices[i])
		logQ[i] = math.Log(volumes[i])
	}

	slope, ok := olsSlope(logP, logQ)
	if !ok {
		estimate.Reason = "no price variation"
		return estimate
	}
	estimate.Elasticity = &slope
	return estimate
}

// windowAverages buckets transactions into consecutive windows of the given
// width and returns the quantity-weighted average price and total volume per
// window. Windows with no sales are skipped (log of zero volume is useless
// to the regression).
func windowAverages(transactions []models.TransactionRecord, windowDays int) (prices, volumes []float64) {
	first := truncateDay(transactions[0].Date)
	buckets := map[int]*struct{ revenue, qty float64 }{}

	for _, tx := range transactions {
		if tx.UnitPrice <= 0 || tx.Quantity <= 0 {
			continue
		}
		idx := int(truncateDay(tx.Date).Sub(first).Hours()/24) / windowDays
		b := buckets[idx]
		if b == nil {
			b = &struct{ revenue, qty float64 }{}
			buckets[idx] = b
		}
		b.revenue += tx.UnitPrice * tx.Quantity
		b.qty += tx.Quantity
	}

	maxIdx := 0
	for idx := range buckets {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	for idx := 0; idx <= maxIdx; idx++ {
		b := buckets[idx]
		if b == nil || b.qty <= 0 {
			continue
		}
		prices = append(prices, b.revenue/b.qty)
		volumes = append(volumes, b.qty)
	}
	return prices, volumes
}

// RecommendRange derives a selling-price band from historically observed
// prices: optimal is the observed price maximizing estimated profit against
// the cost proxy, min/max bound the volume-weighted interquartile range. No
// extrapolation beyond observed prices.
func RecommendRange(transactions []models.TransactionRecord, cfg PricingConfig) models.PriceRange {
	cfg = cfg.withDefaults()
	rng := models.PriceRange{}
	if len(transactions) == 0 {
		return rng
	}
	rng.ProductID = transactions[0].ProductID

	volumeAt := map[float64]float64{}
	var costWeighted, costQty float64
	for _, tx := range transactions {
		if tx.UnitPrice <= 0 || tx.Quantity <= 0 {
			continue
		}
		price := math.Round(tx.UnitPrice*100) / 100
		volumeAt[price] += tx.Quantity
		if tx.CostPrice != nil {
			costWeighted += *tx.CostPrice * tx.Quantity
			costQty += tx.Quantity
		}
	}
	if len(volumeAt) == 0 {
		return rng
	}

	costProxy := 0.0
	if costQty > 0 {
		costProxy = costWeighted / costQty
	}

	prices := make([]float64, 0, len(volumeAt))
	volumes := make([]float64, 0, len(volumeAt))
	bestProfit := math.Inf(-1)
	for price, volume := range volumeAt {
		prices = append(prices, price)
		volumes = append(volumes, volume)
		profit := (price - costProxy) * volume
		if profit > bestProfit || (profit == bestProfit && price < rng.Optimal) {
			bestProfit = profit
			rng.Optimal = price
		}
	}

	rng.Min = weightedPercentile(prices, volumes, 25)
	rng.Max = weightedPercentile(prices, volumes, 75)
	return rng
}
