package forecast

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/simaogato/bizplan-backend/internal/domain"
)

const (
	// Holt's linear smoothing weights
	holtAlpha = 0.3
	holtBeta  = 0.1

	// auto picks ARIMA once this many history points exist
	arimaMinHistory = 6
	maxPhi          = 0.9

	baseConfidence     = 70.0
	confidencePerPoint = 2.0
	confidencePointCap = 12
	confidenceDecay    = 1.5
	minConfidence      = 30.0
)

var hundred = decimal.NewFromInt(100)

// ResolveMethod maps auto to a concrete method based on how much history exists
func ResolveMethod(method domain.ForecastMethod, historyLen int) domain.ForecastMethod {
	if method != domain.ForecastMethodAuto {
		return method
	}
	if historyLen >= arimaMinHistory {
		return domain.ForecastMethodARIMA
	}
	return domain.ForecastMethodExponentialSmoothing
}

// GenerateForecast produces horizonMonths month-by-month forecasts seeded by the
// most recent point of history.
// Logic:
//  1. Sort history chronologically; the last point is the seed
//  2. Deseasonalize income and expense by each point's seasonal factor
//  3. Extrapolate with the resolved method (Holt smoothing or ARIMA(1,1,0))
//  4. Re-apply the seasonal factor recorded for each target calendar month
//  5. Derive profit, margin and a confidence level that decays with distance
func GenerateForecast(history []domain.ForecastDataPoint, method domain.ForecastMethod, horizonMonths int) ([]domain.ForecastResult, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: forecast needs at least one data point", domain.ErrValidation)
	}
	if horizonMonths < 1 || horizonMonths > domain.MaxHorizonMonths {
		return nil, fmt.Errorf("%w: horizon must be between 1 and %d months", domain.ErrValidation, domain.MaxHorizonMonths)
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown forecast method %q", domain.ErrValidation, method)
	}

	sorted := sortedHistory(history)
	seed := sorted[len(sorted)-1]
	resolved := ResolveMethod(method, len(sorted))

	incomes := make([]float64, len(sorted))
	expenses := make([]float64, len(sorted))
	for i, p := range sorted {
		factor := positiveFactor(p.SeasonalFactor)
		incomes[i] = p.TotalIncome().InexactFloat64() / factor
		expenses[i] = p.TotalExpense().InexactFloat64() / factor
	}

	var incomeForecast, expenseForecast []float64
	switch resolved {
	case domain.ForecastMethodARIMA:
		incomeForecast = arima(incomes, horizonMonths)
		expenseForecast = arima(expenses, horizonMonths)
	default:
		incomeForecast = holt(incomes, horizonMonths)
		expenseForecast = holt(expenses, horizonMonths)
	}

	seasonal := seasonalFactors(sorted)
	startConfidence := baseConfidence + confidencePerPoint*float64(min(len(sorted), confidencePointCap))

	results := make([]domain.ForecastResult, 0, horizonMonths)
	for h := 1; h <= horizonMonths; h++ {
		month, year := addMonths(seed.Month, seed.Year, h)

		factor, ok := seasonal[month]
		if !ok {
			factor = 1
		}

		income, err := money(incomeForecast[h-1] * factor)
		if err != nil {
			return nil, err
		}
		expense, err := money(expenseForecast[h-1] * factor)
		if err != nil {
			return nil, err
		}
		profit := income.Sub(expense)

		margin := decimal.Zero
		if income.IsPositive() {
			margin = profit.Div(income).Mul(hundred).Round(2)
		}

		confidence := math.Max(minConfidence, startConfidence-confidenceDecay*float64(h-1))

		results = append(results, domain.ForecastResult{
			Month:           month,
			Year:            year,
			ForecastIncome:  income,
			ForecastExpense: expense,
			ForecastProfit:  profit,
			ForecastMargin:  margin,
			ConfidenceLevel: decimal.NewFromFloat(confidence).Round(2),
			Method:          resolved,
		})
	}

	return results, nil
}

// money floors v at zero and rounds it to cents. Overflowed values are rejected.
func money(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("%w: forecast value out of range", domain.ErrValidation)
	}
	return decimal.NewFromFloat(math.Max(0, v)).Round(2), nil
}

// holt runs Holt's linear exponential smoothing and returns h-step-ahead values
func holt(series []float64, horizon int) []float64 {
	level := series[0]
	trend := 0.0
	if len(series) > 1 {
		trend = series[1] - series[0]
	}

	for _, x := range series[1:] {
		prevLevel := level
		level = holtAlpha*x + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(level-prevLevel) + (1-holtBeta)*trend
	}

	out := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		out[h-1] = level + float64(h)*trend
	}
	return out
}

// arima fits ARIMA(1,1,0) with drift: an AR(1) on first differences.
// phi is the lag-1 autocorrelation of the differences, clamped to ±0.9.
func arima(series []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	last := series[len(series)-1]

	if len(series) < 2 {
		for i := range out {
			out[i] = last
		}
		return out
	}

	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i] - series[i-1]
	}

	drift := mean(diffs)
	phi := lag1Autocorrelation(diffs, drift)

	value := last
	prevDiff := diffs[len(diffs)-1]
	for h := 0; h < horizon; h++ {
		diff := drift + phi*(prevDiff-drift)
		value += diff
		out[h] = value
		prevDiff = diff
	}
	return out
}

func lag1Autocorrelation(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}

	var num, den float64
	for i, x := range xs {
		den += (x - mu) * (x - mu)
		if i > 0 {
			num += (x - mu) * (xs[i-1] - mu)
		}
	}
	if den == 0 {
		return 0
	}

	return math.Max(-maxPhi, math.Min(maxPhi, num/den))
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// seasonalFactors maps calendar month to the most recent factor recorded for it
func seasonalFactors(sorted []domain.ForecastDataPoint) map[int]float64 {
	factors := make(map[int]float64)
	for _, p := range sorted {
		factors[p.Month] = positiveFactor(p.SeasonalFactor)
	}
	return factors
}

func positiveFactor(f decimal.Decimal) float64 {
	if !f.IsPositive() {
		return 1
	}
	return f.InexactFloat64()
}

// addMonths advances (month, year) by n months across year boundaries
func addMonths(month, year, n int) (int, int) {
	idx := (month - 1) + n
	return idx%12 + 1, year + idx/12
}

func sortedHistory(history []domain.ForecastDataPoint) []domain.ForecastDataPoint {
	sorted := make([]domain.ForecastDataPoint, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})
	return sorted
}
