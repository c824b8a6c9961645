package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// forecastResultRepository implements domain.ForecastResultRepository
type forecastResultRepository struct {
	db *DB
}

// NewForecastResultRepository creates a new forecast result repository
func NewForecastResultRepository(db *DB) domain.ForecastResultRepository {
	return &forecastResultRepository{db: db}
}

// Replace deletes the stored results and insights of a data point and inserts
// the new set inside one database transaction
func (r *forecastResultRepository) Replace(ctx context.Context, forecastDataID uuid.UUID, results []domain.ForecastResult, insights []domain.ForecastInsight) error {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Serialize concurrent replacements of the same data point
	var lockedID uuid.UUID
	err = dbTx.QueryRowContext(ctx, `SELECT id FROM forecast_data WHERE id = $1 FOR UPDATE`, forecastDataID).Scan(&lockedID)
	if err != nil {
		return translateError("lock forecast data", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM forecast_results WHERE forecast_data_id = $1`, forecastDataID); err != nil {
		return fmt.Errorf("failed to delete forecast results: %w", err)
	}
	if _, err := dbTx.ExecContext(ctx, `DELETE FROM forecast_insights WHERE forecast_data_id = $1`, forecastDataID); err != nil {
		return fmt.Errorf("failed to delete forecast insights: %w", err)
	}

	insertResultQuery := `
		INSERT INTO forecast_results (
			id, forecast_data_id, user_id, month, year,
			forecast_income, forecast_expense, forecast_profit, forecast_margin,
			confidence_level, method
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, res := range results {
		_, err = dbTx.ExecContext(ctx, insertResultQuery,
			res.ID,
			forecastDataID,
			res.UserID,
			res.Month,
			res.Year,
			res.ForecastIncome.String(),
			res.ForecastExpense.String(),
			res.ForecastProfit.String(),
			res.ForecastMargin.String(),
			res.ConfidenceLevel.String(),
			string(res.Method),
		)
		if err != nil {
			return translateError("insert forecast result", err)
		}
	}

	insertInsightQuery := `
		INSERT INTO forecast_insights (
			id, forecast_data_id, user_id, type, title, description,
			value, month, year, severity, position
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for i, in := range insights {
		var month, year interface{}
		if in.Month != nil {
			month = *in.Month
		}
		if in.Year != nil {
			year = *in.Year
		}

		_, err = dbTx.ExecContext(ctx, insertInsightQuery,
			in.ID,
			forecastDataID,
			in.UserID,
			in.Type,
			in.Title,
			in.Description,
			in.Value,
			month,
			year,
			string(in.Severity),
			i,
		)
		if err != nil {
			return translateError("insert forecast insight", err)
		}
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListResults retrieves stored results ordered by year, month
func (r *forecastResultRepository) ListResults(ctx context.Context, forecastDataID uuid.UUID) ([]domain.ForecastResult, error) {
	query := `
		SELECT id, forecast_data_id, user_id, month, year,
			forecast_income, forecast_expense, forecast_profit, forecast_margin,
			confidence_level, method
		FROM forecast_results
		WHERE forecast_data_id = $1
		ORDER BY year, month
	`

	rows, err := r.db.QueryContext(ctx, query, forecastDataID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast results: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ForecastResult, 0)
	for rows.Next() {
		var res domain.ForecastResult
		err := rows.Scan(
			&res.ID,
			&res.ForecastDataID,
			&res.UserID,
			&res.Month,
			&res.Year,
			&res.ForecastIncome,
			&res.ForecastExpense,
			&res.ForecastProfit,
			&res.ForecastMargin,
			&res.ConfidenceLevel,
			&res.Method,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast results: %w", err)
	}

	return results, nil
}

// ListInsights retrieves stored insights in the order they were generated
func (r *forecastResultRepository) ListInsights(ctx context.Context, forecastDataID uuid.UUID) ([]domain.ForecastInsight, error) {
	query := `
		SELECT id, forecast_data_id, user_id, type, title, description, value, month, year, severity
		FROM forecast_insights
		WHERE forecast_data_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, forecastDataID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast insights: %w", err)
	}
	defer rows.Close()

	insights := make([]domain.ForecastInsight, 0)
	for rows.Next() {
		var in domain.ForecastInsight
		var month, year sql.NullInt64

		err := rows.Scan(
			&in.ID,
			&in.ForecastDataID,
			&in.UserID,
			&in.Type,
			&in.Title,
			&in.Description,
			&in.Value,
			&month,
			&year,
			&in.Severity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast insight: %w", err)
		}

		if month.Valid {
			m := int(month.Int64)
			in.Month = &m
		}
		if year.Valid {
			y := int(year.Int64)
			in.Year = &y
		}

		insights = append(insights, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast insights: %w", err)
	}

	return insights, nil
}
