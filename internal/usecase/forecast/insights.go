package forecast

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simaogato/bizplan-backend/internal/domain"
)

// Insight type tags
const (
	InsightDecliningProfit   = "declining_profit"
	InsightNegativeProfit    = "negative_profit"
	InsightMarginCompression = "margin_compression"
	InsightLowMargin         = "low_margin"
	InsightIncomeGrowth      = "income_growth"
	InsightSeasonalAnomaly   = "seasonal_anomaly"
	InsightLowConfidence     = "low_confidence"
)

const (
	decliningStreak         = 3
	marginCompressionPoints = 5.0
	lowMarginPercent        = 10.0
	incomeGrowthPercent     = 10.0
	seasonalDeviation       = 0.25
	lowConfidencePercent    = 50.0
)

// GenerateInsights scans a forecast for noteworthy patterns.
// An empty slice is a valid outcome.
func GenerateInsights(history []domain.ForecastDataPoint, results []domain.ForecastResult) []domain.ForecastInsight {
	insights := make([]domain.ForecastInsight, 0)

	if len(results) > 0 {
		if in, ok := decliningProfit(results); ok {
			insights = append(insights, in)
		}
		if in, ok := negativeProfit(results); ok {
			insights = append(insights, in)
		}
		if in, ok := marginCompression(results); ok {
			insights = append(insights, in)
		}
		if in, ok := lowMargin(results); ok {
			insights = append(insights, in)
		}
		if in, ok := incomeGrowth(results); ok {
			insights = append(insights, in)
		}
	}

	insights = append(insights, seasonalAnomalies(history)...)

	if len(results) > 0 {
		last := results[len(results)-1]
		confidence := last.ConfidenceLevel.InexactFloat64()
		if confidence < lowConfidencePercent {
			insights = append(insights, atMonth(domain.ForecastInsight{
				Type:        InsightLowConfidence,
				Title:       "Low confidence at the end of the horizon",
				Description: fmt.Sprintf("Confidence drops to %.2f%%; treat far-out months as rough estimates.", confidence),
				Value:       confidence,
				Severity:    domain.SeverityInfo,
			}, last))
		}
	}

	return insights
}

// decliningProfit reports the first run of at least three consecutive monthly profit decreases
func decliningProfit(results []domain.ForecastResult) (domain.ForecastInsight, bool) {
	start := 0
	for i := 1; i <= len(results); i++ {
		if i < len(results) && results[i].ForecastProfit.LessThan(results[i-1].ForecastProfit) {
			continue
		}

		// results[start..i-1] is a strictly decreasing run
		if i-1-start >= decliningStreak {
			first := results[start]
			end := results[i-1]
			drop := first.ForecastProfit.Sub(end.ForecastProfit)

			severity := domain.SeverityWarning
			if end.ForecastProfit.IsNegative() {
				severity = domain.SeverityCritical
			}

			return atMonth(domain.ForecastInsight{
				Type:  InsightDecliningProfit,
				Title: "Sustained profit decline",
				Description: fmt.Sprintf("Profit falls for %d consecutive months, losing %s in total.",
					i-1-start, drop.StringFixed(2)),
				Value:    drop.InexactFloat64(),
				Severity: severity,
			}, end), true
		}
		start = i
	}
	return domain.ForecastInsight{}, false
}

func negativeProfit(results []domain.ForecastResult) (domain.ForecastInsight, bool) {
	for _, r := range results {
		if r.ForecastProfit.IsNegative() {
			return atMonth(domain.ForecastInsight{
				Type:        InsightNegativeProfit,
				Title:       "Forecast loss",
				Description: fmt.Sprintf("Expenses exceed income in %02d/%d by %s.", r.Month, r.Year, r.ForecastProfit.Neg().StringFixed(2)),
				Value:       r.ForecastProfit.InexactFloat64(),
				Severity:    domain.SeverityCritical,
			}, r), true
		}
	}
	return domain.ForecastInsight{}, false
}

func marginCompression(results []domain.ForecastResult) (domain.ForecastInsight, bool) {
	if len(results) < 2 {
		return domain.ForecastInsight{}, false
	}

	first := results[0]
	last := results[len(results)-1]
	drop := first.ForecastMargin.Sub(last.ForecastMargin).InexactFloat64()
	if drop < marginCompressionPoints {
		return domain.ForecastInsight{}, false
	}

	return atMonth(domain.ForecastInsight{
		Type:  InsightMarginCompression,
		Title: "Margin compression",
		Description: fmt.Sprintf("Margin shrinks from %s%% to %s%% over the horizon.",
			first.ForecastMargin.StringFixed(2), last.ForecastMargin.StringFixed(2)),
		Value:    drop,
		Severity: domain.SeverityWarning,
	}, last), true
}

func lowMargin(results []domain.ForecastResult) (domain.ForecastInsight, bool) {
	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.ForecastMargin)
	}
	avg := total.Div(decimal.NewFromInt(int64(len(results)))).Round(2)
	if avg.InexactFloat64() >= lowMarginPercent {
		return domain.ForecastInsight{}, false
	}

	return domain.ForecastInsight{
		Type:        InsightLowMargin,
		Title:       "Thin average margin",
		Description: fmt.Sprintf("Average forecast margin is %s%%, below the %.0f%% comfort level.", avg.StringFixed(2), lowMarginPercent),
		Value:       avg.InexactFloat64(),
		Severity:    domain.SeverityWarning,
	}, true
}

func incomeGrowth(results []domain.ForecastResult) (domain.ForecastInsight, bool) {
	first := results[0].ForecastIncome
	last := results[len(results)-1].ForecastIncome
	if !first.IsPositive() {
		return domain.ForecastInsight{}, false
	}

	growth := last.Sub(first).Div(first).Mul(hundred).Round(2)
	if growth.InexactFloat64() <= incomeGrowthPercent {
		return domain.ForecastInsight{}, false
	}

	return domain.ForecastInsight{
		Type:        InsightIncomeGrowth,
		Title:       "Income growth",
		Description: fmt.Sprintf("Income grows %s%% across the forecast horizon.", growth.StringFixed(2)),
		Value:       growth.InexactFloat64(),
		Severity:    domain.SeverityInfo,
	}, true
}

func seasonalAnomalies(history []domain.ForecastDataPoint) []domain.ForecastInsight {
	var out []domain.ForecastInsight
	for _, p := range sortedHistory(history) {
		factor := positiveFactor(p.SeasonalFactor)
		deviation := factor - 1
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation <= seasonalDeviation {
			continue
		}

		month, year := p.Month, p.Year
		out = append(out, domain.ForecastInsight{
			Type:        InsightSeasonalAnomaly,
			Title:       "Seasonal swing",
			Description: fmt.Sprintf("%02d/%d runs at %.2fx its baseline.", p.Month, p.Year, factor),
			Value:       factor,
			Month:       &month,
			Year:        &year,
			Severity:    domain.SeverityInfo,
		})
	}
	return out
}

func atMonth(in domain.ForecastInsight, r domain.ForecastResult) domain.ForecastInsight {
	month, year := r.Month, r.Year
	in.Month = &month
	in.Year = &year
	return in
}
