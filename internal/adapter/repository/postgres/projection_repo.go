package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// yearlyRow is the JSONB shape of one projected year. Money is written as a
// JSON number rather than decimal's default quoted string.
type yearlyRow struct {
	Year      int         `json:"year"`
	Revenue   json.Number `json:"revenue"`
	Cost      json.Number `json:"cost"`
	NetProfit json.Number `json:"net_profit"`
}

func encodeYearly(yearly []domain.YearlyProjection) ([]byte, error) {
	rows := make([]yearlyRow, 0, len(yearly))
	for _, y := range yearly {
		rows = append(rows, yearlyRow{
			Year:      y.Year,
			Revenue:   json.Number(y.Revenue.String()),
			Cost:      json.Number(y.Cost.String()),
			NetProfit: json.Number(y.NetProfit.String()),
		})
	}
	return json.Marshal(rows)
}

func decodeYearly(raw []byte) ([]domain.YearlyProjection, error) {
	var rows []yearlyRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	yearly := make([]domain.YearlyProjection, 0, len(rows))
	for _, r := range rows {
		revenue, err := decimal.NewFromString(r.Revenue.String())
		if err != nil {
			return nil, fmt.Errorf("year %d revenue: %w", r.Year, err)
		}
		cost, err := decimal.NewFromString(r.Cost.String())
		if err != nil {
			return nil, fmt.Errorf("year %d cost: %w", r.Year, err)
		}
		profit, err := decimal.NewFromString(r.NetProfit.String())
		if err != nil {
			return nil, fmt.Errorf("year %d net_profit: %w", r.Year, err)
		}
		yearly = append(yearly, domain.YearlyProjection{Year: r.Year, Revenue: revenue, Cost: cost, NetProfit: profit})
	}
	return yearly, nil
}

// projectionRepository implements domain.ProjectionRepository
type projectionRepository struct {
	db *DB
}

// NewProjectionRepository creates a new projection repository
func NewProjectionRepository(db *DB) domain.ProjectionRepository {
	return &projectionRepository{db: db}
}

const projectionColumns = `
	id, user_id, name, base_year, growth_rate, inflation_rate, discount_rate,
	initial_investment, base_revenue, base_cost, yearly_projections,
	npv, roi, irr, payback_period, created_at, updated_at
`

// Create stores a projection with its yearly table and (optional) metrics
func (r *projectionRepository) Create(ctx context.Context, p *domain.Projection) error {
	yearly, err := encodeYearly(p.YearlyProjections)
	if err != nil {
		return fmt.Errorf("failed to encode yearly projections: %w", err)
	}

	var npv, roi, irr, payback interface{}
	if p.Metrics != nil {
		npv = p.Metrics.NPV.String()
		roi = p.Metrics.ROI.String()
		irr = p.Metrics.IRR.String()
		if p.Metrics.PaybackPeriod != nil {
			payback = *p.Metrics.PaybackPeriod
		}
	}

	query := `
		INSERT INTO projections (` + projectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Input.BaseYear,
		p.Input.GrowthRate.String(),
		p.Input.InflationRate.String(),
		p.Input.DiscountRate.String(),
		p.Input.InitialInvestment.String(),
		p.Input.BaseRevenue.String(),
		p.Input.BaseCost.String(),
		string(yearly),
		npv,
		roi,
		irr,
		payback,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return translateError("create projection", err)
	}

	return nil
}

// GetByID retrieves a projection by its ID
func (r *projectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Projection, error) {
	query := `SELECT ` + projectionColumns + ` FROM projections WHERE id = $1`

	p, err := scanProjection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("get projection", err)
	}

	return p, nil
}

// ListByUser retrieves all projections owned by a user, newest first
func (r *projectionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Projection, error) {
	query := `SELECT ` + projectionColumns + ` FROM projections WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projections: %w", err)
	}
	defer rows.Close()

	projections := make([]*domain.Projection, 0)
	for rows.Next() {
		p, err := scanProjection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan projection: %w", err)
		}
		projections = append(projections, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projections: %w", err)
	}

	return projections, nil
}

// UpdateMetrics overwrites only the metric columns of a projection
func (r *projectionRepository) UpdateMetrics(ctx context.Context, id uuid.UUID, metrics domain.ProjectionMetrics) error {
	query := `
		UPDATE projections
		SET npv = $2, roi = $3, irr = $4, payback_period = $5, updated_at = NOW()
		WHERE id = $1
	`

	var payback interface{}
	if metrics.PaybackPeriod != nil {
		payback = *metrics.PaybackPeriod
	}

	res, err := r.db.ExecContext(ctx, query,
		id,
		metrics.NPV.String(),
		metrics.ROI.String(),
		metrics.IRR.String(),
		payback,
	)
	if err != nil {
		return translateError("update projection metrics", err)
	}

	return expectAffected("update projection metrics", res)
}

// Delete removes a projection
func (r *projectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projections WHERE id = $1`, id)
	if err != nil {
		return translateError("delete projection", err)
	}

	return expectAffected("delete projection", res)
}

func scanProjection(row rowScanner) (*domain.Projection, error) {
	var p domain.Projection
	var yearlyRaw []byte
	var npv, roi, irr decimal.NullDecimal
	var payback sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Input.BaseYear,
		&p.Input.GrowthRate,
		&p.Input.InflationRate,
		&p.Input.DiscountRate,
		&p.Input.InitialInvestment,
		&p.Input.BaseRevenue,
		&p.Input.BaseCost,
		&yearlyRaw,
		&npv,
		&roi,
		&irr,
		&payback,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.YearlyProjections, err = decodeYearly(yearlyRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse yearly_projections: %w", err)
	}

	// Metrics stay nil until they have been computed at least once
	if npv.Valid {
		p.Metrics = &domain.ProjectionMetrics{
			NPV: npv.Decimal,
			ROI: roi.Decimal,
			IRR: irr.Decimal,
		}
		if payback.Valid {
			years := int(payback.Int64)
			p.Metrics.PaybackPeriod = &years
		}
	}

	return &p, nil
}
