package forecast

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/bizplan-backend/internal/domain"
)

type monthTotals struct {
	sales        decimal.Decimal
	otherIncome  decimal.Decimal
	operational  decimal.Decimal
	otherExpense decimal.Decimal
}

// AggregateLedger turns a year of ledger entries into a single seed data point.
// Totals are divided by the number of months with at least one entry, not by 12.
// The seed lands on the latest month with activity. Returns false for an empty ledger.
func AggregateLedger(entries []domain.LedgerEntry) (domain.ForecastDataPoint, bool) {
	if len(entries) == 0 {
		return domain.ForecastDataPoint{}, false
	}

	activity := make(map[int]struct{})
	totals := &monthTotals{}
	latest := entries[0].Date

	for _, e := range entries {
		if e.Date.After(latest) {
			latest = e.Date
		}

		activity[int(e.Date.Month())] = struct{}{}

		switch e.Type {
		case domain.EntryTypeIncome:
			if e.Category == domain.CategorySales {
				totals.sales = totals.sales.Add(e.Amount)
			} else {
				totals.otherIncome = totals.otherIncome.Add(e.Amount)
			}
		case domain.EntryTypeExpense:
			if e.Category == domain.CategoryOperational {
				totals.operational = totals.operational.Add(e.Amount)
			} else {
				totals.otherExpense = totals.otherExpense.Add(e.Amount)
			}
		}
	}

	activeMonths := decimal.NewFromInt(int64(len(activity)))
	average := func(total decimal.Decimal) decimal.Decimal {
		return total.Div(activeMonths).Round(2)
	}

	return domain.ForecastDataPoint{
		Month:              int(latest.Month()),
		Year:               latest.Year(),
		IncomeSales:        average(totals.sales),
		IncomeOther:        average(totals.otherIncome),
		ExpenseOperational: average(totals.operational),
		ExpenseOther:       average(totals.otherExpense),
		SeasonalFactor:     decimal.NewFromInt(1),
	}, true
}
