package analytics

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"app/models"
)

// MarginConfig carries the tunables for one margin analysis pass.
type MarginConfig struct {
	// TargetMarginPct is the margin threshold, in percent. Zero means the
	// 30% retail baseline.
	TargetMarginPct float64
	// InventoryCounts are optional physical counts keyed by product. Without
	// a count for a product the analyzer never types waste or theft for it.
	InventoryCounts map[string]models.InventoryCount
}

func (c MarginConfig) withDefaults() MarginConfig {
	if c.TargetMarginPct <= 0 {
		c.TargetMarginPct = 30
	}
	return c
}

// Deep-discount and inventory-discrepancy cutoffs for leakage signals.
const (
	deepDiscountFraction  = 0.15 // priced >15% below the product median
	discountAbuseShare    = 0.20 // deep discounts carrying >20% of units
	belowCostStreakLength = 3
	countDiscrepancyMin   = 0.05 // ignore shrinkage below 5% of expected
	theftDiscrepancyMin   = 0.20 // above this the discrepancy types as theft
)

// AnalyzeMargins produces one MarginFinding per product that has cost data.
// Transactions must be ordered by ascending date; products surface in first-
// seen order so repeated runs on the same input are identical.
func AnalyzeMargins(transactions []models.TransactionRecord, cfg MarginConfig) []models.MarginFinding {
	cfg = cfg.withDefaults()

	order := make([]string, 0)
	byProduct := make(map[string][]models.TransactionRecord)
	for _, tx := range transactions {
		if tx.CostPrice == nil || tx.Quantity <= 0 {
			continue
		}
		if _, seen := byProduct[tx.ProductID]; !seen {
			order = append(order, tx.ProductID)
		}
		byProduct[tx.ProductID] = append(byProduct[tx.ProductID], tx)
	}

	findings := make([]models.MarginFinding, 0, len(order))
	for _, productID := range order {
		findings = append(findings, analyzeProduct(productID, byProduct[productID], cfg))
	}
	return findings
}

func analyzeProduct(productID string, txs []models.TransactionRecord, cfg MarginConfig) models.MarginFinding {
	var revenue, cost, units float64
	for _, tx := range txs {
		revenue += tx.UnitPrice * tx.Quantity
		cost += *tx.CostPrice * tx.Quantity
		units += tx.Quantity
	}
	avgSell := revenue / units
	avgCost := cost / units

	finding := models.MarginFinding{
		ProductID:       productID,
		AvgSellingPrice: avgSell,
		AvgCostPrice:    avgCost,
		Classification:  models.MarginHealthy,
		LeakageType:     models.LeakageNone,
	}

	// Margin is undefined at zero selling price: unreachable given upstream
	// invariants, reported as null rather than zero if it ever happens.
	if avgSell != 0 {
		pct := ((avgSell - avgCost) / avgSell) * 100
		finding.MarginPct = &pct
	}

	belowCost := belowCostTransactions(txs)
	streak := belowCostStreak(txs) >= belowCostStreakLength
	discounted, discountAbuse := discountPattern(txs)
	count, counted := cfg.InventoryCounts[productID]
	discrepancy := 0.0
	if counted && count.Expected > 0 {
		discrepancy = (count.Expected - count.Counted) / count.Expected
	}

	belowTarget := finding.MarginPct != nil && *finding.MarginPct < cfg.TargetMarginPct
	leakageSignal := streak || discountAbuse || discrepancy > countDiscrepancyMin

	switch {
	case belowTarget && leakageSignal:
		finding.Classification = models.MarginLeakageSuspected
		finding.LeakageType = classifyLeakage(discountAbuse, len(belowCost) > 0, counted, discrepancy)
	case belowTarget:
		finding.Classification = models.MarginBelowTarget
	}

	flagged := mergeFlagged(belowCost, discounted)
	finding.EstimatedLoss = estimatedLoss(flagged, cfg.TargetMarginPct)
	finding.Confidence = leakageConfidence(len(txs), flaggedShare(flagged, units), finding.Classification)
	finding.Recommendation = recommendationFor(finding, cfg.TargetMarginPct)
	return finding
}

// classifyLeakage is best effort, in priority order: a physical count
// discrepancy types as theft or waste, a concentrated discount pattern as
// discount abuse, and stray below-cost pricing as a pricing error.
func classifyLeakage(discountAbuse, hasBelowCost, counted bool, discrepancy float64) string {
	switch {
	case counted && discrepancy > theftDiscrepancyMin:
		return models.LeakageTheft
	case counted && discrepancy > countDiscrepancyMin:
		return models.LeakageWaste
	case discountAbuse:
		return models.LeakageDiscountAbuse
	case hasBelowCost:
		return models.LeakagePricingError
	default:
		return models.LeakageNone
	}
}

func belowCostTransactions(txs []models.TransactionRecord) []models.TransactionRecord {
	var flagged []models.TransactionRecord
	for _, tx := range txs {
		if tx.UnitPrice <= *tx.CostPrice {
			flagged = append(flagged, tx)
		}
	}
	return flagged
}

// belowCostStreak returns the longest run of consecutive transactions priced
// at or below cost.
func belowCostStreak(txs []models.TransactionRecord) int {
	longest, current := 0, 0
	for _, tx := range txs {
		if tx.UnitPrice <= *tx.CostPrice {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// discountPattern returns the deep-discounted transactions and whether they
// carry enough volume to look like abuse rather than ordinary promotion.
func discountPattern(txs []models.TransactionRecord) ([]models.TransactionRecord, bool) {
	prices := make([]float64, 0, len(txs))
	var units float64
	for _, tx := range txs {
		prices = append(prices, tx.UnitPrice)
		units += tx.Quantity
	}
	median, err := stats.Median(prices)
	if err != nil || median <= 0 || units <= 0 {
		return nil, false
	}

	cutoff := median * (1 - deepDiscountFraction)
	var discounted []models.TransactionRecord
	var discountedUnits float64
	for _, tx := range txs {
		if tx.UnitPrice < cutoff {
			discounted = append(discounted, tx)
			discountedUnits += tx.Quantity
		}
	}
	return discounted, discountedUnits/units > discountAbuseShare
}

func mergeFlagged(a, b []models.TransactionRecord) []models.TransactionRecord {
	seen := make(map[string]bool, len(a))
	merged := make([]models.TransactionRecord, 0, len(a)+len(b))
	for _, tx := range a {
		seen[tx.TransactionID] = true
		merged = append(merged, tx)
	}
	for _, tx := range b {
		if !seen[tx.TransactionID] {
			merged = append(merged, tx)
		}
	}
	return merged
}

// estimatedLoss sums, over the flagged transactions, the gap between the
// price that would have achieved the target margin at the observed cost and
// the price actually charged.
func estimatedLoss(flagged []models.TransactionRecord, targetMarginPct float64) float64 {
	factor := 1 - targetMarginPct/100
	if factor <= 0 {
		return 0
	}
	var loss float64
	for _, tx := range flagged {
		targetPrice := *tx.CostPrice / factor
		if gap := targetPrice - tx.UnitPrice; gap > 0 {
			loss += gap * tx.Quantity
		}
	}
	return loss
}

func flaggedShare(flagged []models.TransactionRecord, totalUnits float64) float64 {
	if totalUnits <= 0 {
		return 0
	}
	var units float64
	for _, tx := range flagged {
		units += tx.Quantity
	}
	return units / totalUnits
}

// leakageConfidence grows with sample size; leakage calls are additionally
// tempered by how much of the volume the flagged transactions carry.
func leakageConfidence(sampleSize int, flaggedShare float64, classification string) float64 {
	confidence := float64(sampleSize) / float64(sampleSize+10)
	if classification == models.MarginLeakageSuspected {
		confidence *= math.Min(1, 0.5+flaggedShare)
	}
	return math.Min(1, confidence)
}

// recommendationFor maps classification + leakage type to templated advice
// filled with the numeric findings. A static lookup, not a generative step.
func recommendationFor(f models.MarginFinding, targetMarginPct float64) string {
	margin := 0.0
	if f.MarginPct != nil {
		margin = *f.MarginPct
	}

	switch f.Classification {
	case models.MarginLeakageSuspected:
		switch f.LeakageType {
		case models.LeakageTheft:
			return fmt.Sprintf("Inventory count discrepancy suggests theft; estimated loss %.2f. Tighten stock controls and audit shrinkage for this product.", f.EstimatedLoss)
		case models.LeakageWaste:
			return fmt.Sprintf("Inventory count discrepancy suggests waste or spoilage; estimated loss %.2f. Review ordering volumes and shelf-life handling.", f.EstimatedLoss)
		case models.LeakageDiscountAbuse:
			return fmt.Sprintf("Repeated deep discounts are eroding margin (%.1f%% vs %.1f%% target, estimated loss %.2f). Review discount authorization.", margin, targetMarginPct, f.EstimatedLoss)
		case models.LeakagePricingError:
			return fmt.Sprintf("Transactions priced at or below cost detected (estimated loss %.2f). Correct the listed price or cost records.", f.EstimatedLoss)
		default:
			return fmt.Sprintf("Margin %.1f%% is below the %.1f%% target with irregular pricing. Investigate recent transactions.", margin, targetMarginPct)
		}
	case models.MarginBelowTarget:
		return fmt.Sprintf("Margin %.1f%% is below the %.1f%% target. Consider a price adjustment or renegotiating cost %.2f.", margin, targetMarginPct, f.AvgCostPrice)
	default:
		return fmt.Sprintf("Margin %.1f%% meets the %.1f%% target. No action needed.", margin, targetMarginPct)
	}
}
