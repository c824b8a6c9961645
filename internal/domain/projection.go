package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinBaseYear is the earliest base year a projection may start from
const MinBaseYear = 2020

// ProjectionYears is the fixed projection horizon
const ProjectionYears = 5

var hundred = decimal.NewFromInt(100)

// MaxMoneyAmount caps every money input so engine arithmetic stays finite
var MaxMoneyAmount = decimal.New(1, 15)

// ProjectionInput holds the base-year snapshot and the rate assumptions.
// Rates are percentages on a 0-100 scale.
type ProjectionInput struct {
	BaseYear          int
	GrowthRate        decimal.Decimal
	InflationRate     decimal.Decimal
	DiscountRate      decimal.Decimal
	InitialInvestment decimal.Decimal
	BaseRevenue       decimal.Decimal
	BaseCost          decimal.Decimal
}

// Validate rejects inputs the projection engine must never receive
func (in ProjectionInput) Validate() error {
	if in.BaseYear < MinBaseYear {
		return Invalid("base year must be %d or later", MinBaseYear)
	}

	rates := []struct {
		name  string
		value decimal.Decimal
	}{
		{"growth rate", in.GrowthRate},
		{"inflation rate", in.InflationRate},
		{"discount rate", in.DiscountRate},
	}
	for _, r := range rates {
		if r.value.IsNegative() || r.value.GreaterThan(hundred) {
			return Invalid("%s must be between 0 and 100", r.name)
		}
	}

	if in.InitialInvestment.IsNegative() {
		return Invalid("initial investment cannot be negative")
	}
	if in.BaseRevenue.IsNegative() {
		return Invalid("base revenue cannot be negative")
	}
	if in.BaseCost.IsNegative() {
		return Invalid("base cost cannot be negative")
	}

	for _, amount := range []decimal.Decimal{in.InitialInvestment, in.BaseRevenue, in.BaseCost} {
		if amount.GreaterThan(MaxMoneyAmount) {
			return Invalid("amounts cannot exceed %s", MaxMoneyAmount)
		}
	}

	return nil
}

// YearlyProjection is one row of the projected cash-flow table.
// Year is the relative index 1..5.
type YearlyProjection struct {
	Year      int             `json:"year"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

// ProjectionMetrics are derived from the yearly table and the initial investment.
// PaybackPeriod is nil when cumulative cash flow never turns positive.
type ProjectionMetrics struct {
	NPV           decimal.Decimal `json:"npv"`
	ROI           decimal.Decimal `json:"roi"`
	IRR           decimal.Decimal `json:"irr"`
	PaybackPeriod *int            `json:"payback_period"`
}

// Projection is a stored financial projection owned by a single user
type Projection struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Name              string
	Input             ProjectionInput
	YearlyProjections []YearlyProjection
	Metrics           *ProjectionMetrics // NULL until computed
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate ensures the projection record is storable
func (p *Projection) Validate() error {
	if p.UserID == uuid.Nil {
		return Invalid("projection must have an owner")
	}
	if p.Name == "" {
		return Invalid("projection name cannot be empty")
	}
	if err := p.Input.Validate(); err != nil {
		return err
	}

	// Stored rows must stay in ascending year order with no gaps
	for i, y := range p.YearlyProjections {
		if y.Year != i+1 {
			return Invalid("yearly projections must be ordered 1..%d without gaps", len(p.YearlyProjections))
		}
	}

	return nil
}

// OwnedBy reports whether the projection belongs to userID
func (p *Projection) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}
