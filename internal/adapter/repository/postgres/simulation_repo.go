package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// simulationRepository implements domain.SimulationRepository
type simulationRepository struct {
	db *DB
}

// NewSimulationRepository creates a new simulation repository
func NewSimulationRepository(db *DB) domain.SimulationRepository {
	return &simulationRepository{db: db}
}

// Create creates a new simulation
func (r *simulationRepository) Create(ctx context.Context, s *domain.Simulation) error {
	query := `
		INSERT INTO simulations (id, user_id, name, year, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Name, s.Year, s.CreatedAt)
	if err != nil {
		return translateError("create simulation", err)
	}

	return nil
}

// GetByID retrieves a simulation by its ID
func (r *simulationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	query := `
		SELECT id, user_id, name, year, created_at
		FROM simulations
		WHERE id = $1
	`

	var s domain.Simulation
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Name, &s.Year, &s.CreatedAt)
	if err != nil {
		return nil, translateError("get simulation", err)
	}

	return &s, nil
}

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Create creates a new ledger entry
func (r *ledgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, simulation_id, user_id, type, category, amount, entry_date, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.SimulationID,
		e.UserID,
		string(e.Type),
		e.Category,
		e.Amount.String(),
		e.Date,
		e.Description,
	)
	if err != nil {
		return translateError("create ledger entry", err)
	}

	return nil
}

// ListByYear retrieves the entries of a simulation dated inside year, ordered by date
func (r *ledgerRepository) ListByYear(ctx context.Context, simulationID uuid.UUID, year int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, simulation_id, user_id, type, category, amount, entry_date, description
		FROM ledger_entries
		WHERE simulation_id = $1 AND entry_date >= $2 AND entry_date < $3
		ORDER BY entry_date, id
	`

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := r.db.QueryContext(ctx, query, simulationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.SimulationID,
			&e.UserID,
			&e.Type,
			&e.Category,
			&e.Amount,
			&e.Date,
			&e.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
