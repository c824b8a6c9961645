package domain

import (
	"context"

	"github.com/google/uuid"
)

// ProjectionRepository defines the interface for projection persistence operations
type ProjectionRepository interface {
	// Create stores a new projection together with its yearly table and metrics
	Create(ctx context.Context, p *Projection) error

	// GetByID retrieves a projection by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Projection, error)

	// ListByUser retrieves all projections owned by a user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Projection, error)

	// UpdateMetrics overwrites only the metric columns of a projection
	UpdateMetrics(ctx context.Context, id uuid.UUID, metrics ProjectionMetrics) error

	// Delete removes a projection
	Delete(ctx context.Context, id uuid.UUID) error
}

// ForecastDataRepository defines the interface for forecast data persistence operations
type ForecastDataRepository interface {
	// Upsert creates or overwrites the data point identified by
	// (user, simulation, year, month) atomically and sets point.ID
	Upsert(ctx context.Context, point *ForecastDataPoint) error

	// GetByID retrieves a data point by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*ForecastDataPoint, error)

	// ListBySimulation retrieves a user's data points for a simulation ordered by year, month
	ListBySimulation(ctx context.Context, userID, simulationID uuid.UUID) ([]ForecastDataPoint, error)
}

// ForecastResultRepository defines the interface for forecast output persistence operations
type ForecastResultRepository interface {
	// Replace deletes every result and insight of a data point and stores the new set
	// in one transaction
	Replace(ctx context.Context, forecastDataID uuid.UUID, results []ForecastResult, insights []ForecastInsight) error

	// ListResults retrieves stored results ordered by year, month
	ListResults(ctx context.Context, forecastDataID uuid.UUID) ([]ForecastResult, error)

	// ListInsights retrieves stored insights
	ListInsights(ctx context.Context, forecastDataID uuid.UUID) ([]ForecastInsight, error)
}

// SimulationRepository defines the interface for simulation persistence operations
type SimulationRepository interface {
	// Create creates a new simulation
	Create(ctx context.Context, s *Simulation) error

	// GetByID retrieves a simulation by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Simulation, error)
}

// LedgerRepository defines the interface for ledger entry persistence operations
type LedgerRepository interface {
	// Create creates a new ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// ListByYear retrieves the entries of a simulation dated inside year, ordered by date
	ListByYear(ctx context.Context, simulationID uuid.UUID, year int) ([]LedgerEntry, error)
}
