package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"app/ai"
	"app/analytics"
	"app/config"
	"app/database"
	"app/middleware"
	"app/models"
	"app/utils"
)

const defaultWindowDays = 90

// analysisWindow resolves the productId and date window shared by all
// analytics endpoints. The window defaults to the trailing 90 days.
func analysisWindow(c *fiber.Ctx) (productID string, start, end time.Time, err error) {
	productID = c.Query("productId")
	if productID == "" {
		return "", time.Time{}, time.Time{}, errors.New("productId is required")
	}

	end = time.Now().UTC()
	start = end.AddDate(0, 0, -defaultWindowDays)
	if raw := c.Query("startDate"); raw != "" {
		if start, err = utils.ParseDate(raw); err != nil {
			return "", time.Time{}, time.Time{}, errors.New("invalid startDate format")
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if end, err = utils.ParseDate(raw); err != nil {
			return "", time.Time{}, time.Time{}, errors.New("invalid endDate format")
		}
	}
	return productID, start, end, nil
}

func merchantStore(c *fiber.Ctx) (*database.SeriesStore, error) {
	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return nil, err
	}
	return database.NewSeriesStore(claims.UserID), nil
}

// failAnalysis maps the analytics error taxonomy onto HTTP statuses so the
// dashboard can tell "not yet computable" from "temporarily unavailable".
func failAnalysis(c *fiber.Ctx, err error) error {
	var insufficient *analytics.InsufficientDataError
	var invalidCost *analytics.InvalidCostParametersError
	var unavailable *analytics.ForecastUnavailableError

	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "insufficient_data",
			"message": err.Error(),
			"details": fiber.Map{
				"required_days": insufficient.RequiredDays,
				"observed_days": insufficient.ObservedDays,
			},
		})
	case errors.As(err, &invalidCost):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid_cost_parameters",
			"message": err.Error(),
		})
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "forecast_unavailable",
			"message": err.Error(),
		})
	default:
		log.Printf("❌ [ANALYTICS] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal",
			"message": "Analysis failed",
		})
	}
}

func demandPredictor() analytics.Predictor {
	if config.AppConfig.ForecastBackend == "gemini" && config.AppConfig.GeminiAPIKey != "" {
		return &ai.GeminiPredictor{APIKey: config.AppConfig.GeminiAPIKey}
	}
	return &analytics.SmoothingPredictor{}
}

// HandleGetForecast generates a demand forecast for a product.
// GET /api/v1/analytics/forecast?productId=&horizon=7|14|30
func HandleGetForecast(c *fiber.Ctx) error {
	store, err := merchantStore(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID, start, end, err := analysisWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	horizon := c.QueryInt("horizon", 7)

	ctx := c.UserContext()
	series, err := store.GetSeries(ctx, productID, start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	forecaster := analytics.NewForecaster(demandPredictor(), analytics.ForecastConfig{
		ConfidenceLevel: config.AppConfig.ConfidenceLevel,
		MinHistoryDays:  config.AppConfig.MinHistoryDays,
	})
	results, err := forecaster.Forecast(ctx, series, []int{horizon})
	if err != nil {
		var insufficient *analytics.InsufficientDataError
		var unavailable *analytics.ForecastUnavailableError
		if errors.As(err, &insufficient) || errors.As(err, &unavailable) {
			return failAnalysis(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	response := models.ForecastResponse{Forecast: &results[0]}
	if key := config.AppConfig.GeminiAPIKey; key != "" {
		analysis, err := ai.SummarizeForecast(ctx, key, response.Forecast)
		if err != nil {
			log.Printf("⚠️  [FORECAST] AI summary unavailable: %v", err)
		} else {
			response.AiAnalysis = analysis
		}
	}

	log.Printf("✅ [FORECAST] Product %s, horizon %d days", productID, horizon)
	return c.JSON(fiber.Map{"success": true, "data": response})
}

// HandleGetPricingAnomalies flags transactions priced outside the recent
// norm. GET /api/v1/analytics/pricing/anomalies?productId=
func HandleGetPricingAnomalies(c *fiber.Ctx) error {
	store, err := merchantStore(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID, start, end, err := analysisWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	transactions, err := store.GetTransactions(c.UserContext(), productID, start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	anomalies := analytics.DetectAnomalies(transactions, analytics.PricingConfig{
		AnomalyThreshold: config.AppConfig.AnomalyThreshold,
	})
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"anomalies": anomalies}})
}

// HandleGetPriceElasticity estimates price sensitivity of demand.
// GET /api/v1/analytics/pricing/elasticity?productId=
func HandleGetPriceElasticity(c *fiber.Ctx) error {
	store, err := merchantStore(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID, start, end, err := analysisWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	transactions, err := store.GetTransactions(c.UserContext(), productID, start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	estimate := analytics.AnalyzeSensitivity(transactions, analytics.PricingConfig{})
	return c.JSON(fiber.Map{"success": true, "data": estimate})
}

// HandleGetPriceRange recommends a selling-price band from observed prices.
// GET /api/v1/analytics/pricing/range?productId=
func HandleGetPriceRange(c *fiber.Ctx) error {
	store, err := merchantStore(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID, start, end, err := analysisWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	transactions, err := store.GetTransactions(c.UserContext(), productID, start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	priceRange := analytics.RecommendRange(transactions, analytics.PricingConfig{})
	return c.JSON(fiber.Map{"success": true, "data": priceRange})
}

// HandleGetReorderPlan computes safety stock, reorder point and EOQ.
// GET /api/v1/analytics/reorder?productId=&leadTimeDays=&orderCost=&holdingCost=&currentStock=
func HandleGetReorderPlan(c *fiber.Ctx) error {
	store, err := merchantStore(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	productID, start, end, err := analysisWindow(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	ctx := c.UserContext()
	series, err := store.GetSeries(ctx, productID, start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	// Same trailing window backs the forecast and the demand statistics.
	forecaster := analytics.NewForecaster(demandPredictor(), analytics.ForecastConfig{
		ConfidenceLevel: config.AppConfig.ConfidenceLevel,
		MinHistoryDays:  config.AppConfig.MinHistoryDays,
	})
	var forecast *models.ForecastResult
	if results, err := forecaster.Forecast(ctx, series, []int{7}); err == nil {
		forecast = &results[0]
	}

	demand := demandWindow(series, end)
	cfg := analytics.ReorderConfig{
		ServiceLevel:       config.AppConfig.ServiceLevel,
		LeadTimeDays:       c.QueryFloat("leadTimeDays", config.AppConfig.LeadTimeDays),
		OrderCost:          c.QueryFloat("orderCost", config.AppConfig.OrderCost),
		HoldingCostPerUnit: c.QueryFloat("holdingCost", config.AppConfig.HoldingCostPerUnit),
	}
	plan, err := analytics.CalculateReorder(productID, demand, forecast, cfg)
	if err != nil {
		return failAnalysis(c, err)
	}

	payload := fiber.Map{"plan": plan}
	if raw := c.Query("currentStock"); raw != "" {
		stock := c.QueryFloat("currentStock", 0)
		payload["reorder_due"] = analytics.IsReorderDue(stock, plan)
	}
	return c.JSON(fiber.Map{"success": true, "data": payload})
}

// HandleGetMarginAnalysis reports margin findings for every product of the
// merchant with cost data in the window.
// GET /api/v1/analytics/margins?targetMargin=
func HandleGetMarginAnalysis(c *fiber.Ctx) error {
	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -defaultWindowDays)
	if raw := c.Query("startDate"); raw != "" {
		if start, err = utils.ParseDate(raw); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid startDate format"})
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if end, err = utils.ParseDate(raw); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid endDate format"})
		}
	}

	transactions, err := merchantTransactions(c.UserContext(), claims.UserID, c.Query("productId"), start, end)
	if err != nil {
		return failAnalysis(c, err)
	}

	findings := analytics.AnalyzeMargins(transactions, analytics.MarginConfig{
		TargetMarginPct: c.QueryFloat("targetMargin", config.AppConfig.TargetMarginPct),
	})
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"findings": findings}})
}

// merchantTransactions loads sale lines for all products of a merchant, or
// one product when productID is set.
func merchantTransactions(ctx context.Context, merchantID, productID string, start, end time.Time) ([]models.TransactionRecord, error) {
	if productID != "" {
		return database.NewSeriesStore(merchantID).GetTransactions(ctx, productID, start, end)
	}
	return database.NewSeriesStore(merchantID).GetAllTransactions(ctx, start, end)
}

// demandWindow expands the series to daily demand over the trailing
// residual window the forecaster uses (capped at 90 days).
func demandWindow(series []models.SalesPoint, end time.Time) []float64 {
	if len(series) == 0 {
		return nil
	}
	start := series[0].Date
	if span := end.AddDate(0, 0, -90); span.After(start) {
		start = span
	}
	return analytics.DailyDemand(series, start, end)
}
