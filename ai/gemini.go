package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"app/models"
)

const geminiModel = "gemini-2.5-flash-lite"

// GeminiPredictor is the hosted-model implementation of analytics.Predictor.
// It asks Gemini for a minified JSON array of daily point estimates; a
// response that is not exactly horizon values long is an error, never
// partially accepted. Retrying is the forecaster's job.
type GeminiPredictor struct {
	APIKey string
}

func (p *GeminiPredictor) Predict(ctx context.Context, series []models.SalesPoint, horizonDays int) ([]float64, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(predictionPrompt(series, horizonDays)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate prediction: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSONArray(text)
	if jsonStr == "" {
		log.Printf("Could not extract JSON array from Gemini response: %s", text)
		return nil, fmt.Errorf("failed to parse AI response format")
	}

	var estimates []float64
	if err := json.Unmarshal([]byte(jsonStr), &estimates); err != nil {
		return nil, fmt.Errorf("failed to parse AI prediction data: %w", err)
	}
	if len(estimates) != horizonDays {
		return nil, fmt.Errorf("AI returned %d estimates, expected %d", len(estimates), horizonDays)
	}
	return estimates, nil
}

// predictionPrompt lays out the historical series day by day and pins the
// output to a bare JSON array so the response parses deterministically.
func predictionPrompt(series []models.SalesPoint, horizonDays int) string {
	var sb strings.Builder
	for _, p := range series {
		fmt.Fprintf(&sb, "On %s, %.0f units were sold.\n", p.Date.Format("2006-01-02"), p.Quantity)
	}
	dataStr := sb.String()
	if dataStr == "" {
		dataStr = "No sales data available."
	}

	return fmt.Sprintf(`
        You are an expert retail demand forecaster. Predict daily unit sales for the next %d days based on the historical data below.

        **Historical Daily Sales:**
        %s

        **Required Output:**
        A single minified JSON array of exactly %d non-negative numbers, one predicted quantity per day in order. Do not include markdown formatting, backticks, or any text before or after the array.
    `, horizonDays, dataStr, horizonDays)
}

// SummarizeForecast asks Gemini for a qualitative read of a computed
// forecast. Optional decoration: the quantitative result never depends on
// it, so callers log and drop the error.
func SummarizeForecast(ctx context.Context, apiKey string, result *models.ForecastResult) (*models.AiAnalysis, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	forecastJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize forecast: %w", err)
	}

	jsonFormat := `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...]}`
	prompt := fmt.Sprintf(`
        You are a retail data analyst. The demand forecast below was computed for product %s covering %d days starting %s. Summarize what it means for the merchant.

        Forecast: %s

        **Required Output:**
        A single minified JSON object with this exact structure, no markdown or surrounding text: %s
    `, result.ProductID, result.HorizonDays, time.Now().Format("2006-01-02"), string(forecastJSON), jsonFormat)

	model := client.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	jsonStr := extractJSONObject(text)
	if jsonStr == "" {
		return nil, fmt.Errorf("failed to parse AI response format")
	}

	var analysis models.AiAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse AI analysis: %w", err)
	}
	return &analysis, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content received from AI")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content received from AI")
	}
	return text, nil
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
