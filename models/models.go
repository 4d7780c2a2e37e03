package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// --- Core Analytics Entities ---

// SalesPoint is one day of aggregated demand for a single product.
// At most one SalesPoint exists per (product_id, date) pair.
type SalesPoint struct {
	ProductID string    `json:"product_id"`
	Date      time.Time `json:"date"`
	Quantity  float64   `json:"quantity"`
	Revenue   float64   `json:"revenue"`
}

// TransactionRecord is a single sale line as stored upstream. The analytics
// components read it and never write it back. CostPrice is only present when
// the merchant recorded a cost for the item.
type TransactionRecord struct {
	TransactionID string    `json:"transaction_id"`
	ProductID     string    `json:"product_id"`
	Date          time.Time `json:"date"`
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	CostPrice     *float64  `json:"cost_price,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
}

// DailyPrediction is the forecast for a single future day.
type DailyPrediction struct {
	Date          time.Time `json:"date"`
	PointEstimate float64   `json:"point_estimate"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
}

// Seasonality describes a detected repeating demand cycle.
type Seasonality struct {
	Detected   bool    `json:"detected"`
	PeriodDays int     `json:"period_days,omitempty"`
	Strength   float64 `json:"strength"`
}

// ForecastResult is the full multi-day demand forecast for one product and
// one horizon. A newer result for the same product/horizon supersedes it;
// it is never mutated in place.
type ForecastResult struct {
	ProductID        string            `json:"product_id"`
	HorizonDays      int               `json:"horizon_days"`
	DailyPredictions []DailyPrediction `json:"daily_predictions"`
	Seasonality      Seasonality       `json:"seasonality"`
	ConfidenceLevel  float64           `json:"confidence_level"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// Anomaly directions.
const (
	AnomalyOver  = "over"
	AnomalyUnder = "under"
)

// PricingAnomaly flags a transaction priced outside the recent norm for its
// product. RevenueImpact is the absolute size of the effect; Direction says
// which way the price deviated.
type PricingAnomaly struct {
	ProductID      string  `json:"product_id"`
	TransactionID  string  `json:"transaction_id"`
	ObservedPrice  float64 `json:"observed_price"`
	ReferencePrice float64 `json:"reference_price"`
	DeviationPct   float64 `json:"deviation_pct"`
	Direction      string  `json:"direction"`
	RevenueImpact  float64 `json:"estimated_revenue_impact"`
}

// ElasticityEstimate carries the price elasticity of demand for a product.
// Elasticity is nil when the series has no price variation to estimate from;
// Reason says why.
type ElasticityEstimate struct {
	ProductID  string   `json:"product_id"`
	Elasticity *float64 `json:"elasticity"`
	Reason     string   `json:"reason,omitempty"`
}

// PriceRange is the recommended selling-price band for a product, derived
// from historically observed prices only.
type PriceRange struct {
	ProductID string  `json:"product_id"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Optimal   float64 `json:"optimal"`
}

// ReorderPlan is one replenishment recommendation for a product. A newer
// plan supersedes the previous one.
type ReorderPlan struct {
	ProductID          string  `json:"product_id"`
	AverageDailyDemand float64 `json:"average_daily_demand"`
	DemandStdDev       float64 `json:"demand_std_dev"`
	LeadTimeDays       float64 `json:"lead_time_days"`
	SafetyStock        float64 `json:"safety_stock"`
	ReorderPoint       float64 `json:"reorder_point"`
	OrderQuantity      float64 `json:"order_quantity"`
	StockoutRiskPct    float64 `json:"stockout_risk_pct"`
}

// Margin classifications.
const (
	MarginHealthy          = "healthy"
	MarginBelowTarget      = "below_target"
	MarginLeakageSuspected = "leakage_suspected"
)

// Leakage types.
const (
	LeakagePricingError  = "pricing_error"
	LeakageWaste         = "waste"
	LeakageTheft         = "theft"
	LeakageDiscountAbuse = "discount_abuse"
	LeakageNone          = "none"
)

// MarginFinding summarizes profitability for one product. MarginPct is nil
// when the average selling price is zero (margin undefined).
type MarginFinding struct {
	ProductID       string   `json:"product_id"`
	AvgSellingPrice float64  `json:"average_selling_price"`
	AvgCostPrice    float64  `json:"average_cost_price"`
	MarginPct       *float64 `json:"margin_pct"`
	Classification  string   `json:"classification"`
	LeakageType     string   `json:"leakage_type"`
	EstimatedLoss   float64  `json:"estimated_loss"`
	Confidence      float64  `json:"confidence"`
	Recommendation  string   `json:"recommendation"`
}

// InventoryCount is an optional physical stock count supplied by the caller.
// Expected is opening stock minus recorded sales; Counted is what was found
// on the shelf. Without it the margin analyzer never types waste or theft.
type InventoryCount struct {
	ProductID string  `json:"product_id"`
	Expected  float64 `json:"expected"`
	Counted   float64 `json:"counted"`
}
