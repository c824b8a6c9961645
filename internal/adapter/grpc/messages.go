package grpc

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bizplan-backend/internal/domain"
	"github.com/simaogato/bizplan-backend/internal/usecase/forecast"
)

// projectionInputMessage carries money as decimal strings, never as Struct numbers
type projectionInputMessage struct {
	BaseYear          int             `json:"base_year"`
	GrowthRate        decimal.Decimal `json:"growth_rate"`
	InflationRate     decimal.Decimal `json:"inflation_rate"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	InitialInvestment decimal.Decimal `json:"initial_investment"`
	BaseRevenue       decimal.Decimal `json:"base_revenue"`
	BaseCost          decimal.Decimal `json:"base_cost"`
}

func (m projectionInputMessage) toDomain() domain.ProjectionInput {
	return domain.ProjectionInput{
		BaseYear:          m.BaseYear,
		GrowthRate:        m.GrowthRate,
		InflationRate:     m.InflationRate,
		DiscountRate:      m.DiscountRate,
		InitialInvestment: m.InitialInvestment,
		BaseRevenue:       m.BaseRevenue,
		BaseCost:          m.BaseCost,
	}
}

func projectionInputToMessage(in domain.ProjectionInput) projectionInputMessage {
	return projectionInputMessage(in)
}

type createProjectionRequest struct {
	Name  string                 `json:"name"`
	Input projectionInputMessage `json:"input"`
}

type projectionIDRequest struct {
	ProjectionID string `json:"projection_id"`
}

type previewProjectionResponse struct {
	YearlyProjections []domain.YearlyProjection `json:"yearly_projections"`
	Metrics           domain.ProjectionMetrics  `json:"metrics"`
}

type projectionMessage struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"`
	Input             projectionInputMessage    `json:"input"`
	YearlyProjections []domain.YearlyProjection `json:"yearly_projections"`
	Metrics           *domain.ProjectionMetrics `json:"metrics"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

func projectionToMessage(p *domain.Projection) projectionMessage {
	return projectionMessage{
		ID:                p.ID.String(),
		Name:              p.Name,
		Input:             projectionInputToMessage(p.Input),
		YearlyProjections: p.YearlyProjections,
		Metrics:           p.Metrics,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

type forecastDataMessage struct {
	ID                 string          `json:"id,omitempty"`
	SimulationID       string          `json:"simulation_id,omitempty"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	IncomeSales        decimal.Decimal `json:"income_sales"`
	IncomeOther        decimal.Decimal `json:"income_other"`
	ExpenseOperational decimal.Decimal `json:"expense_operational"`
	ExpenseOther       decimal.Decimal `json:"expense_other"`
	SeasonalFactor     decimal.Decimal `json:"seasonal_factor"`
}

func (m forecastDataMessage) toDomain() (domain.ForecastDataPoint, error) {
	p := domain.ForecastDataPoint{
		Month:              m.Month,
		Year:               m.Year,
		IncomeSales:        m.IncomeSales,
		IncomeOther:        m.IncomeOther,
		ExpenseOperational: m.ExpenseOperational,
		ExpenseOther:       m.ExpenseOther,
		SeasonalFactor:     m.SeasonalFactor,
	}

	if m.SimulationID != "" {
		simID, err := uuid.Parse(m.SimulationID)
		if err != nil {
			return p, status.Errorf(codes.InvalidArgument, "invalid simulation_id format: %v", err)
		}
		p.SimulationID = simID
	}

	return p, nil
}

func forecastDataToMessage(p *domain.ForecastDataPoint) forecastDataMessage {
	m := forecastDataMessage{
		ID:                 p.ID.String(),
		Month:              p.Month,
		Year:               p.Year,
		IncomeSales:        p.IncomeSales,
		IncomeOther:        p.IncomeOther,
		ExpenseOperational: p.ExpenseOperational,
		ExpenseOther:       p.ExpenseOther,
		SeasonalFactor:     p.SeasonalFactor,
	}
	if p.SimulationID != uuid.Nil {
		m.SimulationID = p.SimulationID.String()
	}
	return m
}

type generateForecastRequest struct {
	ForecastDataID string `json:"forecast_data_id"`
	Method         string `json:"method"`
	HorizonMonths  int    `json:"horizon_months"`
}

type forecastResultMessage struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	ForecastIncome  decimal.Decimal `json:"forecast_income"`
	ForecastExpense decimal.Decimal `json:"forecast_expense"`
	ForecastProfit  decimal.Decimal `json:"forecast_profit"`
	ForecastMargin  decimal.Decimal `json:"forecast_margin"`
	ConfidenceLevel decimal.Decimal `json:"confidence_level"`
	Method          string          `json:"method"`
}

type insightMessage struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Month       *int    `json:"month,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Severity    string  `json:"severity"`
}

type forecastResponse struct {
	Data     forecastDataMessage     `json:"data"`
	Results  []forecastResultMessage `json:"results"`
	Insights []insightMessage        `json:"insights"`
}

func forecastToMessage(out *forecast.Outcome) forecastResponse {
	resp := forecastResponse{
		Data:     forecastDataToMessage(out.Data),
		Results:  make([]forecastResultMessage, 0, len(out.Results)),
		Insights: make([]insightMessage, 0, len(out.Insights)),
	}

	for _, r := range out.Results {
		resp.Results = append(resp.Results, forecastResultMessage{
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
		resp.Insights = append(resp.Insights, insightMessage{
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

// decodeRequest converts a Struct payload into a request message
func decodeRequest(req *structpb.Struct, dst interface{}) error {
	if req == nil {
		req = &structpb.Struct{}
	}

	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	return nil
}

// encodeResponse converts a response message into a Struct payload
func encodeResponse(src interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	return out, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return id, nil
}
