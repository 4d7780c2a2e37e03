package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"app/models"
)

// Predictor produces raw point estimates for the days following a sales
// series. Implementations may be purely statistical or backed by an external
// model; the forecaster treats them identically.
type Predictor interface {
	Predict(ctx context.Context, series []models.SalesPoint, horizonDays int) ([]float64, error)
}

// ForecastConfig carries the tunables for one forecast invocation. Zero
// values fall back to the documented defaults.
type ForecastConfig struct {
	ConfidenceLevel float64       // default 0.95
	MinHistoryDays  int           // default 30
	MaxRetries      uint64        // predictor retry attempts, default 3
	RetryBaseDelay  time.Duration // default 500ms
	RetryMaxDelay   time.Duration // default 5s
}

func (c ForecastConfig) withDefaults() ForecastConfig {
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		c.ConfidenceLevel = 0.95
	}
	if c.MinHistoryDays <= 0 {
		c.MinHistoryDays = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 5 * time.Second
	}
	return c
}

// Seasonality detection: a lag counts as detected when its autocorrelation
// clears this threshold and stands out from sampling noise.
const seasonalityThreshold = 0.3

var validHorizons = map[int]bool{7: true, 14: true, 30: true}

// Forecaster validates history, detects seasonality, invokes the predictor
// and derives confidence bounds. It holds no per-product state; a single
// instance is safe for concurrent use.
type Forecaster struct {
	predictor Predictor
	cfg       ForecastConfig
}

func NewForecaster(predictor Predictor, cfg ForecastConfig) *Forecaster {
	return &Forecaster{predictor: predictor, cfg: cfg.withDefaults()}
}

// Forecast produces one ForecastResult per requested horizon. The series
// must be ordered by ascending date and cover at least MinHistoryDays
// distinct days, otherwise *InsufficientDataError is returned before any
// predictor call.
func (f *Forecaster) Forecast(ctx context.Context, series []models.SalesPoint, horizons []int) ([]models.ForecastResult, error) {
	for _, h := range horizons {
		if !validHorizons[h] {
			return nil, fmt.Errorf("unsupported horizon %d: must be 7, 14 or 30 days", h)
		}
	}

	observed := DistinctDays(series)
	if observed < f.cfg.MinHistoryDays {
		return nil, &InsufficientDataError{RequiredDays: f.cfg.MinHistoryDays, ObservedDays: observed}
	}

	productID := series[0].ProductID
	firstDay := truncateDay(series[0].Date)
	lastDay := truncateDay(series[len(series)-1].Date)
	demand := DailyDemand(series, firstDay, lastDay)

	seasonality := detectSeasonality(demand)

	window := len(demand)
	if window > 90 {
		window = 90
	}
	residualSd := naiveResidualStdDev(demand, window)
	z := zScore(1 - (1-f.cfg.ConfidenceLevel)/2)

	results := make([]models.ForecastResult, 0, len(horizons))
	for _, horizon := range horizons {
		estimates, err := f.predict(ctx, series, horizon)
		if err != nil {
			return nil, err
		}

		predictions := make([]models.DailyPrediction, horizon)
		for i, raw := range estimates {
			point := math.Max(0, raw)
			predictions[i] = models.DailyPrediction{
				Date:          lastDay.AddDate(0, 0, i+1),
				PointEstimate: point,
				LowerBound:    math.Max(0, raw-z*residualSd),
				UpperBound:    math.Max(point, raw+z*residualSd),
			}
		}

		results = append(results, models.ForecastResult{
			ProductID:        productID,
			HorizonDays:      horizon,
			DailyPredictions: predictions,
			Seasonality:      seasonality,
			ConfidenceLevel:  f.cfg.ConfidenceLevel,
			GeneratedAt:      time.Now().UTC(),
		})
	}
	return results, nil
}

// predict calls the predictor with bounded exponential backoff. Responses of
// the wrong length are failures, never partially accepted. Exhausted retries
// surface as *ForecastUnavailableError.
func (f *Forecaster) predict(ctx context.Context, series []models.SalesPoint, horizon int) ([]float64, error) {
	var estimates []float64
	attempts := 0

	op := func() error {
		attempts++
		got, err := f.predictor.Predict(ctx, series, horizon)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(got) != horizon {
			return fmt.Errorf("predictor returned %d values for a %d-day horizon", len(got), horizon)
		}
		estimates = got
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.cfg.RetryBaseDelay
	expo.MaxInterval = f.cfg.RetryMaxDelay

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(expo, f.cfg.MaxRetries), ctx)); err != nil {
		return nil, &ForecastUnavailableError{Attempts: attempts, Err: err}
	}
	return estimates, nil
}

// detectSeasonality checks the weekly and monthly lags of the zero-filled
// demand series. A lag is detected when its autocorrelation exceeds the
// threshold and the 2/sqrt(n) sampling-noise bound; the stronger lag wins.
func detectSeasonality(demand []float64) models.Seasonality {
	best := models.Seasonality{}
	n := len(demand)

	for _, lag := range []int{7, 30} {
		if n < 2*lag {
			continue
		}
		ac := Autocorrelation(demand, lag)
		noiseBound := 2 / math.Sqrt(float64(n))
		if ac > seasonalityThreshold && ac > noiseBound && ac > best.Strength {
			best = models.Seasonality{
				Detected:   true,
				PeriodDays: lag,
				Strength:   math.Min(ac, 1),
			}
		}
	}
	return best
}
