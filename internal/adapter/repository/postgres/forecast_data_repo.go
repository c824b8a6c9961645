package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// forecastDataRepository implements domain.ForecastDataRepository
type forecastDataRepository struct {
	db *DB
}

// NewForecastDataRepository creates a new forecast data repository
func NewForecastDataRepository(db *DB) domain.ForecastDataRepository {
	return &forecastDataRepository{db: db}
}

const forecastDataColumns = `
	id, user_id, simulation_id, month, year,
	income_sales, income_other, expense_operational, expense_other, seasonal_factor,
	created_at, updated_at
`

// Upsert inserts the data point or overwrites the row with the same
// (user, simulation, year, month). The unique index makes concurrent saves safe.
func (r *forecastDataRepository) Upsert(ctx context.Context, p *domain.ForecastDataPoint) error {
	query := `
		INSERT INTO forecast_data (` + forecastDataColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, simulation_id, year, month) DO UPDATE SET
			income_sales = EXCLUDED.income_sales,
			income_other = EXCLUDED.income_other,
			expense_operational = EXCLUDED.expense_operational,
			expense_other = EXCLUDED.expense_other,
			seasonal_factor = EXCLUDED.seasonal_factor,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		id,
		p.UserID,
		p.SimulationID,
		p.Month,
		p.Year,
		p.IncomeSales.String(),
		p.IncomeOther.String(),
		p.ExpenseOperational.String(),
		p.ExpenseOther.String(),
		p.SeasonalFactor.String(),
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return translateError("upsert forecast data", err)
	}

	return nil
}

// GetByID retrieves a data point by its ID
func (r *forecastDataRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ForecastDataPoint, error) {
	query := `SELECT ` + forecastDataColumns + ` FROM forecast_data WHERE id = $1`

	p, err := scanForecastData(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError("get forecast data", err)
	}

	return &p, nil
}

// ListBySimulation retrieves a user's data points for a simulation ordered by year, month
func (r *forecastDataRepository) ListBySimulation(ctx context.Context, userID, simulationID uuid.UUID) ([]domain.ForecastDataPoint, error) {
	query := `
		SELECT ` + forecastDataColumns + `
		FROM forecast_data
		WHERE user_id = $1 AND simulation_id = $2
		ORDER BY year, month
	`

	rows, err := r.db.QueryContext(ctx, query, userID, simulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast data: %w", err)
	}
	defer rows.Close()

	var points []domain.ForecastDataPoint
	for rows.Next() {
		p, err := scanForecastData(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast data: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast data: %w", err)
	}

	return points, nil
}

func scanForecastData(row rowScanner) (domain.ForecastDataPoint, error) {
	var p domain.ForecastDataPoint
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.SimulationID,
		&p.Month,
		&p.Year,
		&p.IncomeSales,
		&p.IncomeOther,
		&p.ExpenseOperational,
		&p.ExpenseOther,
		&p.SeasonalFactor,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
