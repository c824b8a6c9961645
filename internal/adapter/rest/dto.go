package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/bizplan-backend/internal/domain"
	"github.com/simaogato/bizplan-backend/internal/usecase/forecast"
)

const dateLayout = "2006-01-02"

// ProjectionInputRequest carries the assumptions of a projection.
// Money and rates are accepted as JSON numbers or decimal strings.
type ProjectionInputRequest struct {
	BaseYear          int             `json:"base_year" binding:"required"`
	GrowthRate        decimal.Decimal `json:"growth_rate"`
	InflationRate     decimal.Decimal `json:"inflation_rate"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	InitialInvestment decimal.Decimal `json:"initial_investment"`
	BaseRevenue       decimal.Decimal `json:"base_revenue"`
	BaseCost          decimal.Decimal `json:"base_cost"`
}

func (r ProjectionInputRequest) toDomain() domain.ProjectionInput {
	return domain.ProjectionInput(r)
}

// CreateProjectionRequest is the body of POST /v1/projections
type CreateProjectionRequest struct {
	Name  string                 `json:"name" binding:"required"`
	Input ProjectionInputRequest `json:"input"`
}

// PreviewResponse is an unsaved projection
type PreviewResponse struct {
	YearlyProjections []domain.YearlyProjection `json:"yearly_projections"`
	Metrics           domain.ProjectionMetrics  `json:"metrics"`
}

// ProjectionResponse is a stored projection
type ProjectionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Name              string                    `json:"name"`
	Input             ProjectionInputRequest    `json:"input"`
	YearlyProjections []domain.YearlyProjection `json:"yearly_projections"`
	Metrics           *domain.ProjectionMetrics `json:"metrics"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

func toProjectionResponse(p *domain.Projection) ProjectionResponse {
	return ProjectionResponse{
		ID:                p.ID,
		Name:              p.Name,
		Input:             ProjectionInputRequest(p.Input),
		YearlyProjections: p.YearlyProjections,
		Metrics:           p.Metrics,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// CreateSimulationRequest is the body of POST /v1/simulations
type CreateSimulationRequest struct {
	Name string `json:"name" binding:"required"`
	Year int    `json:"year" binding:"required"`
}

// SimulationResponse is a stored simulation
type SimulationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

func toSimulationResponse(s *domain.Simulation) SimulationResponse {
	return SimulationResponse{ID: s.ID, Name: s.Name, Year: s.Year, CreatedAt: s.CreatedAt}
}

// AddEntryRequest is the body of POST /v1/simulations/:id/entries
type AddEntryRequest struct {
	Type        string          `json:"type" binding:"required,oneof=income expense"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date" binding:"required,datetime=2006-01-02"`
	Description string          `json:"description"`
}

// EntryResponse is a stored ledger entry
type EntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func toEntryResponse(e domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Type:        string(e.Type),
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
	}
}

// SeedRequest is the body of POST /v1/simulations/:id/forecast-data
type SeedRequest struct {
	Year int `json:"year" binding:"required"`
}

// ForecastDataRequest is the body of POST /v1/forecast-data
type ForecastDataRequest struct {
	SimulationID       *uuid.UUID       `json:"simulation_id"`
	Month              int              `json:"month" binding:"required,min=1,max=12"`
	Year               int              `json:"year" binding:"required"`
	IncomeSales        decimal.Decimal  `json:"income_sales"`
	IncomeOther        decimal.Decimal  `json:"income_other"`
	ExpenseOperational decimal.Decimal  `json:"expense_operational"`
	ExpenseOther       decimal.Decimal  `json:"expense_other"`
	SeasonalFactor     *decimal.Decimal `json:"seasonal_factor"`
}

func (r ForecastDataRequest) toDomain() domain.ForecastDataPoint {
	p := domain.ForecastDataPoint{
		Month:              r.Month,
		Year:               r.Year,
		IncomeSales:        r.IncomeSales,
		IncomeOther:        r.IncomeOther,
		ExpenseOperational: r.ExpenseOperational,
		ExpenseOther:       r.ExpenseOther,
	}
	if r.SimulationID != nil {
		p.SimulationID = *r.SimulationID
	}
	if r.SeasonalFactor != nil {
		p.SeasonalFactor = *r.SeasonalFactor
	}
	return p
}

// ForecastDataResponse is a stored monthly data point
type ForecastDataResponse struct {
	ID                 uuid.UUID       `json:"id"`
	SimulationID       *uuid.UUID      `json:"simulation_id"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	IncomeSales        decimal.Decimal `json:"income_sales"`
	IncomeOther        decimal.Decimal `json:"income_other"`
	ExpenseOperational decimal.Decimal `json:"expense_operational"`
	ExpenseOther       decimal.Decimal `json:"expense_other"`
	SeasonalFactor     decimal.Decimal `json:"seasonal_factor"`
}

func toForecastDataResponse(p *domain.ForecastDataPoint) ForecastDataResponse {
	resp := ForecastDataResponse{
		ID:                 p.ID,
		Month:              p.Month,
		Year:               p.Year,
		IncomeSales:        p.IncomeSales,
		IncomeOther:        p.IncomeOther,
		ExpenseOperational: p.ExpenseOperational,
		ExpenseOther:       p.ExpenseOther,
		SeasonalFactor:     p.SeasonalFactor,
	}
	if p.SimulationID != uuid.Nil {
		simID := p.SimulationID
		resp.SimulationID = &simID
	}
	return resp
}

// GenerateForecastRequest is the body of POST /v1/forecast-data/:id/forecast
type GenerateForecastRequest struct {
	Method        string `json:"method" binding:"omitempty,oneof=auto arima exponential_smoothing"`
	HorizonMonths int    `json:"horizon_months" binding:"required,min=1,max=120"`
}

// ForecastResultResponse is one forecast month
type ForecastResultResponse struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	ForecastIncome  decimal.Decimal `json:"forecast_income"`
	ForecastExpense decimal.Decimal `json:"forecast_expense"`
	ForecastProfit  decimal.Decimal `json:"forecast_profit"`
	ForecastMargin  decimal.Decimal `json:"forecast_margin"`
	ConfidenceLevel decimal.Decimal `json:"confidence_level"`
	Method          string          `json:"method"`
}

// InsightResponse is one forecast insight
type InsightResponse struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Month       *int    `json:"month,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Severity    string  `json:"severity"`
}

// ForecastResponse bundles the seed, the forecast rows and the insights
type ForecastResponse struct {
	Data     ForecastDataResponse     `json:"data"`
	Results  []ForecastResultResponse `json:"results"`
	Insights []InsightResponse        `json:"insights"`
}

func toForecastResponse(out *forecast.Outcome) ForecastResponse {
	resp := ForecastResponse{
		Data:     toForecastDataResponse(out.Data),
		Results:  make([]ForecastResultResponse, 0, len(out.Results)),
		Insights: make([]InsightResponse, 0, len(out.Insights)),
	}

	for _, r := range out.Results {
		resp.Results = append(resp.Results, ForecastResultResponse{
			Month:           r.Month,
			Year:            r.Year,
			ForecastIncome:  r.ForecastIncome,
			ForecastExpense: r.ForecastExpense,
			ForecastProfit:  r.ForecastProfit,
			ForecastMargin:  r.ForecastMargin,
			ConfidenceLevel: r.ConfidenceLevel,
			Method:          string(r.Method),
		})
	}

	for _, in := range out.Insights {
		resp.Insights = append(resp.Insights, InsightResponse{
			Type:        in.Type,
			Title:       in.Title,
			Description: in.Description,
			Value:       in.Value,
			Month:       in.Month,
			Year:        in.Year,
			Severity:    string(in.Severity),
		})
	}

	return resp
}
