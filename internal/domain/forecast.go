package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxHorizonMonths bounds the number of months a forecast may cover
const MaxHorizonMonths = 120

// ForecastMethod selects the forecasting algorithm
type ForecastMethod string

const (
	ForecastMethodAuto                 ForecastMethod = "auto"
	ForecastMethodARIMA                ForecastMethod = "arima"
	ForecastMethodExponentialSmoothing ForecastMethod = "exponential_smoothing"
)

// IsValid reports whether m is one of the known method values
func (m ForecastMethod) IsValid() bool {
	switch m {
	case ForecastMethodAuto, ForecastMethodARIMA, ForecastMethodExponentialSmoothing:
		return true
	}
	return false
}

// InsightSeverity grades a forecast insight
type InsightSeverity string

const (
	SeverityInfo     InsightSeverity = "info"
	SeverityWarning  InsightSeverity = "warning"
	SeverityCritical InsightSeverity = "critical"
)

// ForecastDataPoint is one month of aggregated historical figures.
// Identity key is (UserID, SimulationID, Year, Month); SimulationID is uuid.Nil
// for manually entered points.
type ForecastDataPoint struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	SimulationID       uuid.UUID
	Month              int
	Year               int
	IncomeSales        decimal.Decimal
	IncomeOther        decimal.Decimal
	ExpenseOperational decimal.Decimal
	ExpenseOther       decimal.Decimal
	SeasonalFactor     decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalIncome returns sales plus other income
func (p ForecastDataPoint) TotalIncome() decimal.Decimal {
	return p.IncomeSales.Add(p.IncomeOther)
}

// TotalExpense returns operational plus other expense
func (p ForecastDataPoint) TotalExpense() decimal.Decimal {
	return p.ExpenseOperational.Add(p.ExpenseOther)
}

// Before orders data points chronologically
func (p ForecastDataPoint) Before(other ForecastDataPoint) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Validate checks the month/year range and money signs.
// A zero seasonal factor is replaced by the 1.0 default.
func (p *ForecastDataPoint) Validate() error {
	if p.UserID == uuid.Nil {
		return Invalid("forecast data must have an owner")
	}
	if p.Month < 1 || p.Month > 12 {
		return Invalid("month must be between 1 and 12")
	}
	if p.Year < MinBaseYear {
		return Invalid("year must be %d or later", MinBaseYear)
	}

	amounts := []decimal.Decimal{p.IncomeSales, p.IncomeOther, p.ExpenseOperational, p.ExpenseOther}
	for _, a := range amounts {
		if a.IsNegative() {
			return Invalid("income and expense amounts cannot be negative")
		}
		if a.GreaterThan(MaxMoneyAmount) {
			return Invalid("income and expense amounts cannot exceed %s", MaxMoneyAmount)
		}
	}

	if p.SeasonalFactor.IsZero() {
		p.SeasonalFactor = decimal.NewFromInt(1)
	}
	if p.SeasonalFactor.IsNegative() {
		return Invalid("seasonal factor must be positive")
	}

	return nil
}

// OwnedBy reports whether the data point belongs to userID
func (p *ForecastDataPoint) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// ForecastResult is the forecast for one future month
type ForecastResult struct {
	ID              uuid.UUID
	ForecastDataID  uuid.UUID
	UserID          uuid.UUID
	Month           int
	Year            int
	ForecastIncome  decimal.Decimal
	ForecastExpense decimal.Decimal
	ForecastProfit  decimal.Decimal
	ForecastMargin  decimal.Decimal // percent
	ConfidenceLevel decimal.Decimal // percent
	Method          ForecastMethod  // always a concrete method, never auto
}

// ForecastInsight annotates a noteworthy pattern in a forecast
type ForecastInsight struct {
	ID             uuid.UUID
	ForecastDataID uuid.UUID
	UserID         uuid.UUID
	Type           string
	Title          string
	Description    string
	Value          float64
	Month          *int
	Year           *int
	Severity       InsightSeverity
}
