package simulation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// AddEntryInput represents the input for recording a ledger entry
type AddEntryInput struct {
	Type        domain.EntryType
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// SimulationService manages simulations and their transaction ledger
type SimulationService struct {
	SimulationRepo domain.SimulationRepository
	LedgerRepo     domain.LedgerRepository
	Logger         *zap.Logger
}

// NewSimulationService creates a new SimulationService instance
func NewSimulationService(simulationRepo domain.SimulationRepository, ledgerRepo domain.LedgerRepository, logger *zap.Logger) *SimulationService {
	return &SimulationService{
		SimulationRepo: simulationRepo,
		LedgerRepo:     ledgerRepo,
		Logger:         logger,
	}
}

// Create starts a new simulation for a financial year
func (s *SimulationService) Create(ctx context.Context, userID uuid.UUID, name string, year int) (*domain.Simulation, error) {
	sim := &domain.Simulation{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Year:      year,
		CreatedAt: time.Now().UTC(),
	}

	if err := sim.Validate(); err != nil {
		return nil, err
	}

	if err := s.SimulationRepo.Create(ctx, sim); err != nil {
		return nil, err
	}

	s.Logger.Info("simulation created",
		zap.String("simulation_id", sim.ID.String()),
		zap.Int("year", year),
	)

	return sim, nil
}

// Get retrieves a simulation owned by userID
func (s *SimulationService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Simulation, error) {
	sim, err := s.SimulationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sim.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}

	return sim, nil
}

// AddEntry records an income or expense transaction.
// Logic:
//  1. Fetch the simulation and verify ownership
//  2. Validate type, amount and date
//  3. Reject dates outside the simulation's year
//  4. Save using LedgerRepo.Create
func (s *SimulationService) AddEntry(ctx context.Context, userID, simulationID uuid.UUID, input AddEntryInput) (*domain.LedgerEntry, error) {
	sim, err := s.Get(ctx, userID, simulationID)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:           uuid.New(),
		SimulationID: sim.ID,
		UserID:       userID,
		Type:         input.Type,
		Category:     input.Category,
		Amount:       input.Amount,
		Date:         input.Date,
		Description:  strings.TrimSpace(input.Description),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if entry.Date.Year() != sim.Year {
		return nil, domain.Invalid("entry date must fall inside %d", sim.Year)
	}

	if err := s.LedgerRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListEntries retrieves the ledger of a simulation's year ordered by date
func (s *SimulationService) ListEntries(ctx context.Context, userID, simulationID uuid.UUID) ([]domain.LedgerEntry, error) {
	sim, err := s.Get(ctx, userID, simulationID)
	if err != nil {
		return nil, err
	}

	return s.LedgerRepo.ListByYear(ctx, sim.ID, sim.Year)
}
