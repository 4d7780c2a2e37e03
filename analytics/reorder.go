package analytics

import (
	"math"

	"github.com/montanaflynn/stats"

	"app/models"
)

// ReorderConfig carries the supply parameters for one reorder calculation.
type ReorderConfig struct {
	ServiceLevel       float64 // default 0.95
	LeadTimeDays       float64
	OrderCost          float64 // fixed cost per purchase order
	HoldingCostPerUnit float64 // annual holding cost per unit
}

func (c ReorderConfig) withDefaults() ReorderConfig {
	if c.ServiceLevel <= 0 || c.ServiceLevel >= 1 {
		c.ServiceLevel = 0.95
	}
	return c
}

// CalculateReorder derives safety stock, reorder point, EOQ and stockout
// risk from the daily demand series. The demand slice must cover the same
// trailing window that backed the forecast so the two stay consistent; the
// forecast itself is carried for traceability of which prediction the plan
// was built against.
func CalculateReorder(productID string, demand []float64, forecast *models.ForecastResult, cfg ReorderConfig) (*models.ReorderPlan, error) {
	cfg = cfg.withDefaults()

	switch {
	case cfg.HoldingCostPerUnit <= 0:
		return nil, &InvalidCostParametersError{Parameter: "holding_cost_per_unit", Value: cfg.HoldingCostPerUnit}
	case cfg.OrderCost <= 0:
		return nil, &InvalidCostParametersError{Parameter: "order_cost", Value: cfg.OrderCost}
	case cfg.LeadTimeDays <= 0:
		return nil, &InvalidCostParametersError{Parameter: "lead_time_days", Value: cfg.LeadTimeDays}
	}

	if forecast != nil && forecast.ProductID != "" {
		productID = forecast.ProductID
	}

	mean, err := stats.Mean(demand)
	if err != nil {
		mean = 0
	}
	sd := 0.0
	if len(demand) > 1 {
		if s, err := stats.StandardDeviationSample(demand); err == nil {
			sd = s
		}
	}

	z := zScore(cfg.ServiceLevel)
	safetyStock := z * sd * math.Sqrt(cfg.LeadTimeDays)
	reorderPoint := mean*cfg.LeadTimeDays + safetyStock
	orderQuantity := math.Sqrt(2 * mean * 365 * cfg.OrderCost / cfg.HoldingCostPerUnit)

	return &models.ReorderPlan{
		ProductID:          productID,
		AverageDailyDemand: mean,
		DemandStdDev:       sd,
		LeadTimeDays:       cfg.LeadTimeDays,
		SafetyStock:        safetyStock,
		ReorderPoint:       reorderPoint,
		OrderQuantity:      orderQuantity,
		StockoutRiskPct:    stockoutRisk(reorderPoint, mean, sd, cfg.LeadTimeDays),
	}, nil
}

// stockoutRisk is the probability, in percent, that normally distributed
// lead-time demand exceeds the reorder point. With the z-derived safety
// stock it lands close to 1 - service_level.
func stockoutRisk(reorderPoint, meanDaily, sdDaily, leadTimeDays float64) float64 {
	leadMean := meanDaily * leadTimeDays
	leadSd := sdDaily * math.Sqrt(leadTimeDays)
	if leadSd == 0 {
		if reorderPoint >= leadMean {
			return 0
		}
		return 100
	}
	return 100 * (1 - stats.NormCdf(reorderPoint, leadMean, leadSd))
}

// IsReorderDue reports whether current stock has reached the reorder point.
// Pure predicate for the external alert collaborator to poll on each stock
// update; the calculator itself never watches live inventory.
func IsReorderDue(currentStock float64, plan *models.ReorderPlan) bool {
	return plan != nil && currentStock <= plan.ReorderPoint
}
