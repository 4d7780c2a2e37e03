package models

// AiAnalysis contains the qualitative insights generated alongside a
// quantitative forecast. Optional: present only when the AI adapter is
// configured.
type AiAnalysis struct {
	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// ForecastResponse is the forecast API payload: the quantitative result plus
// the optional narrative.
type ForecastResponse struct {
	Forecast   *ForecastResult `json:"forecast"`
	AiAnalysis *AiAnalysis     `json:"ai_analysis,omitempty"`
}
