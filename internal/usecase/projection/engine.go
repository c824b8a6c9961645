package projection

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/simaogato/bizplan-backend/internal/domain"
)

const (
	irrInitialGuess  = 0.10
	irrMaxIterations = 100
	irrTolerance     = 0.0001
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// IRRResult is the outcome of the Newton-Raphson IRR search.
// Rate is a percentage and is meaningful even when Converged is false.
type IRRResult struct {
	Rate       float64
	Iterations int
	Converged  bool
}

// Analysis bundles the public metrics with the IRR solver outcome
type Analysis struct {
	Metrics domain.ProjectionMetrics
	IRR     IRRResult
}

// ComputeProjection builds the 5-year cash-flow table and derives its metrics.
// Logic:
//   - revenue[y] = baseRevenue * (1 + growth/100)^y
//   - cost[y]    = baseCost * (1 + inflation/100)^y
//   - netProfit[y] = revenue[y] - cost[y]
//
// The input is assumed valid; callers run input.Validate() first.
func ComputeProjection(input domain.ProjectionInput) ([]domain.YearlyProjection, domain.ProjectionMetrics) {
	yearly := ProjectYears(input)
	analysis, _ := Analyze(yearly, input.InitialInvestment, input.DiscountRate)
	return yearly, analysis.Metrics
}

// ProjectYears compounds base revenue and cost over the projection horizon
func ProjectYears(input domain.ProjectionInput) []domain.YearlyProjection {
	growth := one.Add(input.GrowthRate.Div(hundred))
	inflation := one.Add(input.InflationRate.Div(hundred))

	yearly := make([]domain.YearlyProjection, 0, domain.ProjectionYears)
	revenue := input.BaseRevenue
	cost := input.BaseCost

	for y := 1; y <= domain.ProjectionYears; y++ {
		// Compound the unrounded running values; only the stored row is rounded
		revenue = revenue.Mul(growth)
		cost = cost.Mul(inflation)

		roundedRevenue := revenue.Round(2)
		roundedCost := cost.Round(2)

		yearly = append(yearly, domain.YearlyProjection{
			Year:      y,
			Revenue:   roundedRevenue,
			Cost:      roundedCost,
			NetProfit: roundedRevenue.Sub(roundedCost),
		})
	}

	return yearly
}

// CalculateMetrics derives NPV, ROI, IRR and payback period from a yearly table.
// Returns false when there is no yearly data to work from.
func CalculateMetrics(yearly []domain.YearlyProjection, initialInvestment, discountRate decimal.Decimal) (domain.ProjectionMetrics, bool) {
	analysis, ok := Analyze(yearly, initialInvestment, discountRate)
	return analysis.Metrics, ok
}

// Analyze is CalculateMetrics plus the IRR convergence details
func Analyze(yearly []domain.YearlyProjection, initialInvestment, discountRate decimal.Decimal) (Analysis, bool) {
	if len(yearly) == 0 {
		return Analysis{}, false
	}

	sorted := sortedByYear(yearly)

	discount := one.Add(discountRate.Div(hundred))
	npv := initialInvestment.Neg()
	cumulative := initialInvestment.Neg()
	totalProfit := decimal.Zero
	var payback *int

	for _, row := range sorted {
		npv = npv.Add(row.NetProfit.Div(powInt(discount, row.Year)))
		totalProfit = totalProfit.Add(row.NetProfit)

		// Earliest strictly positive crossing wins, no fractional interpolation
		cumulative = cumulative.Add(row.NetProfit)
		if payback == nil && cumulative.IsPositive() {
			year := row.Year
			payback = &year
		}
	}

	roi := decimal.Zero
	if initialInvestment.IsPositive() {
		roi = totalProfit.Sub(initialInvestment).Div(initialInvestment).Mul(hundred)
	}

	irr := SolveIRR(initialInvestment, sorted)

	return Analysis{
		Metrics: domain.ProjectionMetrics{
			NPV:           npv.Round(2),
			ROI:           roi.Round(2),
			IRR:           decimal.NewFromFloat(irr.Rate).Round(2),
			PaybackPeriod: payback,
		},
		IRR: irr,
	}, true
}

// SolveIRR approximates the internal rate of return with Newton-Raphson.
// Starts at 10%, runs at most 100 iterations and stops when |npv| < 0.0001.
// A zero derivative, or a step that leaves the (−100%, ∞) domain, ends the
// search with the current estimate.
func SolveIRR(initialInvestment decimal.Decimal, yearly []domain.YearlyProjection) IRRResult {
	investment := initialInvestment.InexactFloat64()
	rate := irrInitialGuess

	for i := 0; i < irrMaxIterations; i++ {
		value := NPVAt(investment, yearly, rate)
		if math.Abs(value) < irrTolerance {
			return IRRResult{Rate: rate * 100, Iterations: i, Converged: true}
		}

		derivative := npvDerivativeAt(yearly, rate)
		if derivative == 0 {
			return IRRResult{Rate: rate * 100, Iterations: i}
		}

		next := rate - value/derivative
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return IRRResult{Rate: rate * 100, Iterations: i + 1}
		}
		rate = next
	}

	return IRRResult{Rate: rate * 100, Iterations: irrMaxIterations}
}

// NPVAt evaluates -investment + Σ netProfit[y] / (1+rate)^y for a fractional rate
func NPVAt(investment float64, yearly []domain.YearlyProjection, rate float64) float64 {
	npv := -investment
	for _, row := range yearly {
		npv += row.NetProfit.InexactFloat64() / math.Pow(1+rate, float64(row.Year))
	}
	return npv
}

// npvDerivativeAt evaluates Σ -y * netProfit[y] / (1+rate)^(y+1)
func npvDerivativeAt(yearly []domain.YearlyProjection, rate float64) float64 {
	derivative := 0.0
	for _, row := range yearly {
		y := float64(row.Year)
		derivative += -y * row.NetProfit.InexactFloat64() / math.Pow(1+rate, y+1)
	}
	return derivative
}

// powInt raises base to a non-negative integer power by repeated multiplication
func powInt(base decimal.Decimal, exp int) decimal.Decimal {
	result := one
	for i := 0; i < exp; i++ {
		result = result.Mul(base)
	}
	return result
}

// sortedByYear returns a copy ordered by ascending year
func sortedByYear(yearly []domain.YearlyProjection) []domain.YearlyProjection {
	sorted := make([]domain.YearlyProjection, len(yearly))
	copy(sorted, yearly)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Year < sorted[j].Year
	})
	return sorted
}
