package projection

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// ProjectionService handles projection creation and metric recalculation
type ProjectionService struct {
	Repo   domain.ProjectionRepository
	Logger *zap.Logger
}

// NewProjectionService creates a new ProjectionService instance
func NewProjectionService(repo domain.ProjectionRepository, logger *zap.Logger) *ProjectionService {
	return &ProjectionService{
		Repo:   repo,
		Logger: logger,
	}
}

// Preview computes a projection without persisting it
func (s *ProjectionService) Preview(input domain.ProjectionInput) ([]domain.YearlyProjection, domain.ProjectionMetrics, error) {
	if err := input.Validate(); err != nil {
		return nil, domain.ProjectionMetrics{}, err
	}

	yearly := ProjectYears(input)
	analysis, _ := Analyze(yearly, input.InitialInvestment, input.DiscountRate)
	s.logIRR(uuid.Nil, analysis.IRR)

	return yearly, analysis.Metrics, nil
}

// Create validates the input, computes the yearly table and metrics, and stores the result
func (s *ProjectionService) Create(ctx context.Context, userID uuid.UUID, name string, input domain.ProjectionInput) (*domain.Projection, error) {
	yearly, metrics, err := s.Preview(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Projection{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              strings.TrimSpace(name),
		Input:             input,
		YearlyProjections: yearly,
		Metrics:           &metrics,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Info("projection created",
		zap.String("projection_id", p.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return p, nil
}

// Get retrieves a projection owned by userID
func (s *ProjectionService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Projection, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}

	return p, nil
}

// List retrieves all projections owned by userID
func (s *ProjectionService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Projection, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Delete removes a projection owned by userID
func (s *ProjectionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

// RecalculateMetrics recomputes metrics from the stored yearly table.
// Logic:
//  1. Load the projection and verify ownership
//  2. Recompute NPV/ROI/IRR/payback from the stored rows
//  3. If there are no rows, return ErrNotComputable and leave stored fields untouched
//  4. Otherwise overwrite the metric columns
func (s *ProjectionService) RecalculateMetrics(ctx context.Context, userID, id uuid.UUID) (*domain.Projection, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	analysis, ok := Analyze(p.YearlyProjections, p.Input.InitialInvestment, p.Input.DiscountRate)
	if !ok {
		s.Logger.Warn("projection has no yearly data, metrics unavailable",
			zap.String("projection_id", id.String()),
		)
		return nil, domain.ErrNotComputable
	}
	s.logIRR(id, analysis.IRR)

	if err := s.Repo.UpdateMetrics(ctx, id, analysis.Metrics); err != nil {
		return nil, err
	}

	p.Metrics = &analysis.Metrics
	return p, nil
}

func (s *ProjectionService) logIRR(id uuid.UUID, irr IRRResult) {
	if irr.Converged {
		return
	}
	s.Logger.Debug("irr did not converge, using last estimate",
		zap.String("projection_id", id.String()),
		zap.Float64("rate", irr.Rate),
		zap.Int("iterations", irr.Iterations),
	)
}
