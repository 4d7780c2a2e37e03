package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration.
// This is a simple way to make config accessible globally.
type Config struct {
	JWTSecret    string
	GeminiAPIKey string

	// ForecastBackend selects the demand predictor: "statistical" (default)
	// or "gemini". The gemini backend needs GeminiAPIKey.
	ForecastBackend string

	// Documented analytics defaults. These seed each component call; the
	// components themselves take explicit config values so nothing mutable
	// is shared between concurrent analyses.
	TargetMarginPct    float64 // percent
	AnomalyThreshold   float64 // fractional price deviation
	ServiceLevel       float64 // safety-stock service level
	LeadTimeDays       float64
	OrderCost          float64
	HoldingCostPerUnit float64
	ConfidenceLevel    float64 // forecast confidence bounds
	MinHistoryDays     int     // minimum history before forecasting
}

// AppConfig holds the application-wide configuration.
var AppConfig Config

// Load reads configuration from the environment, applying the documented
// defaults where a variable is unset.
func Load() {
	AppConfig = Config{
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		ForecastBackend:    envString("FORECAST_BACKEND", "statistical"),
		TargetMarginPct:    envFloat("TARGET_MARGIN_PCT", 30),
		AnomalyThreshold:   envFloat("PRICE_ANOMALY_THRESHOLD", 0.15),
		ServiceLevel:       envFloat("SERVICE_LEVEL", 0.95),
		LeadTimeDays:       envFloat("LEAD_TIME_DAYS", 7),
		OrderCost:          envFloat("ORDER_COST", 50),
		HoldingCostPerUnit: envFloat("HOLDING_COST_PER_UNIT", 2),
		ConfidenceLevel:    envFloat("FORECAST_CONFIDENCE_LEVEL", 0.95),
		MinHistoryDays:     envInt("MIN_HISTORY_DAYS", 30),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}
