package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// Outcome bundles a seed data point with its stored forecast
type Outcome struct {
	Data     *domain.ForecastDataPoint
	Results  []domain.ForecastResult
	Insights []domain.ForecastInsight
}

// ForecastService manages forecast data points and regenerates their forecasts
type ForecastService struct {
	DataRepo       domain.ForecastDataRepository
	ResultRepo     domain.ForecastResultRepository
	SimulationRepo domain.SimulationRepository
	LedgerRepo     domain.LedgerRepository
	Logger         *zap.Logger
}

// NewForecastService creates a new ForecastService instance
func NewForecastService(
	dataRepo domain.ForecastDataRepository,
	resultRepo domain.ForecastResultRepository,
	simulationRepo domain.SimulationRepository,
	ledgerRepo domain.LedgerRepository,
	logger *zap.Logger,
) *ForecastService {
	return &ForecastService{
		DataRepo:       dataRepo,
		ResultRepo:     resultRepo,
		SimulationRepo: simulationRepo,
		LedgerRepo:     ledgerRepo,
		Logger:         logger,
	}
}

// SaveDataPoint validates a data point and upserts it by (user, simulation, year, month)
func (s *ForecastService) SaveDataPoint(ctx context.Context, userID uuid.UUID, point *domain.ForecastDataPoint) error {
	point.UserID = userID
	if err := point.Validate(); err != nil {
		return err
	}

	if point.SimulationID != uuid.Nil {
		if _, err := s.ownedSimulation(ctx, userID, point.SimulationID); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	point.CreatedAt = now
	point.UpdatedAt = now

	return s.DataRepo.Upsert(ctx, point)
}

// SeedFromSimulation aggregates a simulation's ledger for year into one data point.
// Logic:
//  1. Verify the simulation belongs to the user
//  2. Load the ledger entries dated inside year
//  3. Average income and expense over the months with activity
//  4. Upsert the result under the latest active month
func (s *ForecastService) SeedFromSimulation(ctx context.Context, userID, simulationID uuid.UUID, year int) (*domain.ForecastDataPoint, error) {
	if _, err := s.ownedSimulation(ctx, userID, simulationID); err != nil {
		return nil, err
	}

	entries, err := s.LedgerRepo.ListByYear(ctx, simulationID, year)
	if err != nil {
		return nil, err
	}

	point, ok := AggregateLedger(entries)
	if !ok {
		s.Logger.Warn("simulation has no ledger entries for year",
			zap.String("simulation_id", simulationID.String()),
			zap.Int("year", year),
		)
		return nil, domain.ErrNotComputable
	}

	point.SimulationID = simulationID
	if err := s.SaveDataPoint(ctx, userID, &point); err != nil {
		return nil, err
	}

	s.Logger.Info("forecast seed aggregated",
		zap.String("forecast_data_id", point.ID.String()),
		zap.Int("entries", len(entries)),
	)

	return &point, nil
}

// Generate forecasts horizonMonths ahead of a stored data point and replaces
// any previously stored results and insights for it.
func (s *ForecastService) Generate(ctx context.Context, userID, dataID uuid.UUID, method domain.ForecastMethod, horizonMonths int) (*Outcome, error) {
	seed, err := s.ownedDataPoint(ctx, userID, dataID)
	if err != nil {
		return nil, err
	}

	history, err := s.historyUpTo(ctx, seed)
	if err != nil {
		return nil, err
	}

	results, err := GenerateForecast(history, method, horizonMonths)
	if err != nil {
		return nil, err
	}
	insights := GenerateInsights(history, results)

	for i := range results {
		results[i].ID = uuid.New()
		results[i].ForecastDataID = seed.ID
		results[i].UserID = userID
	}
	for i := range insights {
		insights[i].ID = uuid.New()
		insights[i].ForecastDataID = seed.ID
		insights[i].UserID = userID
	}

	if err := s.ResultRepo.Replace(ctx, seed.ID, results, insights); err != nil {
		return nil, err
	}

	s.Logger.Info("forecast generated",
		zap.String("forecast_data_id", seed.ID.String()),
		zap.String("method", string(results[0].Method)),
		zap.Int("history_points", len(history)),
		zap.Int("horizon_months", horizonMonths),
		zap.Int("insights", len(insights)),
	)

	return &Outcome{Data: seed, Results: results, Insights: insights}, nil
}

// Results retrieves the stored forecast of a data point
func (s *ForecastService) Results(ctx context.Context, userID, dataID uuid.UUID) (*Outcome, error) {
	seed, err := s.ownedDataPoint(ctx, userID, dataID)
	if err != nil {
		return nil, err
	}

	results, err := s.ResultRepo.ListResults(ctx, dataID)
	if err != nil {
		return nil, err
	}

	insights, err := s.ResultRepo.ListInsights(ctx, dataID)
	if err != nil {
		return nil, err
	}

	return &Outcome{Data: seed, Results: results, Insights: insights}, nil
}

// historyUpTo returns the seed's sibling points dated at or before the seed
func (s *ForecastService) historyUpTo(ctx context.Context, seed *domain.ForecastDataPoint) ([]domain.ForecastDataPoint, error) {
	points, err := s.DataRepo.ListBySimulation(ctx, seed.UserID, seed.SimulationID)
	if err != nil {
		return nil, err
	}

	history := make([]domain.ForecastDataPoint, 0, len(points)+1)
	seen := false
	for _, p := range points {
		if seed.Before(p) {
			continue
		}
		if p.ID == seed.ID {
			seen = true
		}
		history = append(history, p)
	}
	if !seen {
		history = append(history, *seed)
	}

	return history, nil
}

func (s *ForecastService) ownedDataPoint(ctx context.Context, userID, id uuid.UUID) (*domain.ForecastDataPoint, error) {
	point, err := s.DataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !point.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return point, nil
}

func (s *ForecastService) ownedSimulation(ctx context.Context, userID, id uuid.UUID) (*domain.Simulation, error) {
	sim, err := s.SimulationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sim.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return sim, nil
}
