package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/models"
)

const monthKeyLayout = "2006-01"

// MonthlyIncome is one observed month of summed income.
type MonthlyIncome struct {
	Month  string  `json:"month"`
	Income float64 `json:"income"`
}

// ForecastPoint is one predicted future month.
type ForecastPoint struct {
	Month           string  `json:"month"`
	PredictedIncome float64 `json:"predicted_income"`
}

type Forecast struct {
	History  []MonthlyIncome `json:"history"`
	Forecast []ForecastPoint `json:"forecast"`
}

// ForecastIncome buckets the user's income transactions by calendar month and
// fits a closed-form ordinary-least-squares line through the monthly sums,
// then extrapolates monthsToPredict months past the last observed one.
// Predictions are clamped at zero: income cannot go negative.
func (e *Engine) ForecastIncome(ctx context.Context, userID string, monthsToPredict int) (*Forecast, error) {
	if monthsToPredict < 1 {
		return nil, apperr.Validation("months to predict must be at least 1")
	}

	txs, err := e.store.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]float64)
	for _, tx := range txs {
		if tx.Type != models.TypeIncome {
			continue
		}
		buckets[tx.Date.Format(monthKeyLayout)] += tx.Amount.InexactFloat64()
	}
	if len(buckets) == 0 {
		return nil, apperr.InsufficientData("no income data available")
	}
	if len(buckets) < 2 {
		return nil, apperr.InsufficientData("need at least 2 different months of data to forecast")
	}

	monthKeys := make([]string, 0, len(buckets))
	for m := range buckets {
		monthKeys = append(monthKeys, m)
	}
	sort.Strings(monthKeys)

	ys := make([]float64, len(monthKeys))
	for i, m := range monthKeys {
		ys[i] = buckets[m]
	}

	slope, intercept := fitLine(ys)

	history := make([]MonthlyIncome, len(monthKeys))
	for i, m := range monthKeys {
		history[i] = MonthlyIncome{Month: m, Income: round2(ys[i])}
	}

	lastMonth, err := time.Parse(monthKeyLayout, monthKeys[len(monthKeys)-1])
	if err != nil {
		return nil, apperr.Internal("parse month bucket", err)
	}

	forecast := make([]ForecastPoint, 0, monthsToPredict)
	n := len(ys)
	for i := 0; i < monthsToPredict; i++ {
		prediction := slope*float64(n+i) + intercept
		if prediction < 0 {
			prediction = 0
		}
		forecast = append(forecast, ForecastPoint{
			Month:           lastMonth.AddDate(0, i+1, 0).Format(monthKeyLayout),
			PredictedIncome: round2(prediction),
		})
	}

	return &Forecast{History: history, Forecast: forecast}, nil
}

// fitLine fits y = slope*x + intercept over x = 0..n-1 with closed-form least
// squares. Zero-variance input short-circuits to a flat line, which a
// degenerate regression would otherwise not define cleanly.
func fitLine(ys []float64) (slope, intercept float64) {
	flat := true
	for _, y := range ys[1:] {
		if y != ys[0] {
			flat = false
			break
		}
	}
	if flat {
		return 0, ys[0]
	}

	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
