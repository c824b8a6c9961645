package projection

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// MockProjectionRepository is a mock implementation of ProjectionRepository for testing
type MockProjectionRepository struct {
	mock.Mock
}

func (m *MockProjectionRepository) Create(ctx context.Context, p *domain.Projection) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Projection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Projection), args.Error(1)
}

func (m *MockProjectionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Projection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Projection), args.Error(1)
}

func (m *MockProjectionRepository) UpdateMetrics(ctx context.Context, id uuid.UUID, metrics domain.ProjectionMetrics) error {
	args := m.Called(ctx, id, metrics)
	return args.Error(0)
}

func (m *MockProjectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newService(repo *MockProjectionRepository) *ProjectionService {
	return NewProjectionService(repo, zap.NewNop())
}

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)
	userID := uuid.New()

	repo.On("Create", ctx, mock.MatchedBy(func(p *domain.Projection) bool {
		return p.UserID == userID &&
			p.Name == "Coffee shop" &&
			len(p.YearlyProjections) == 5 &&
			p.Metrics != nil
	})).Return(nil)

	p, err := service.Create(ctx, userID, "  Coffee shop ", sampleInput())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, 2, *p.Metrics.PaybackPeriod)
	repo.AssertExpectations(t)
}

func TestCreate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	tests := []struct {
		name   string
		mutate func(in *domain.ProjectionInput)
		errMsg string
	}{
		{"Base year too early", func(in *domain.ProjectionInput) { in.BaseYear = 2019 }, "base year"},
		{"Growth above 100", func(in *domain.ProjectionInput) { in.GrowthRate = decimal.NewFromInt(101) }, "growth rate"},
		{"Negative discount", func(in *domain.ProjectionInput) { in.DiscountRate = decimal.NewFromInt(-1) }, "discount rate"},
		{"Negative investment", func(in *domain.ProjectionInput) { in.InitialInvestment = decimal.NewFromInt(-5) }, "initial investment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sampleInput()
			tt.mutate(&input)

			_, err := service.Create(ctx, uuid.New(), "Plan", input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_EmptyName(t *testing.T) {
	repo := new(MockProjectionRepository)
	service := newService(repo)

	_, err := service.Create(context.Background(), uuid.New(), "   ", sampleInput())

	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_OtherUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&domain.Projection{ID: id, UserID: uuid.New()}, nil)

	_, err := service.Get(ctx, uuid.New(), id)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDelete_OtherUserDoesNotDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&domain.Projection{ID: id, UserID: uuid.New()}, nil)

	err := service.Delete(ctx, uuid.New(), id)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRecalculateMetrics_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	userID := uuid.New()
	id := uuid.New()
	input := sampleInput()
	stored := &domain.Projection{
		ID:                id,
		UserID:            userID,
		Name:              "Plan",
		Input:             input,
		YearlyProjections: ProjectYears(input),
	}
	expected, _ := CalculateMetrics(stored.YearlyProjections, input.InitialInvestment, input.DiscountRate)

	repo.On("GetByID", ctx, id).Return(stored, nil)
	repo.On("UpdateMetrics", ctx, id, expected).Return(nil)

	p, err := service.RecalculateMetrics(ctx, userID, id)

	require.NoError(t, err)
	assert.Equal(t, expected, *p.Metrics)
	repo.AssertExpectations(t)
}

func TestRecalculateMetrics_NoYearlyData(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	userID := uuid.New()
	id := uuid.New()
	previous := &domain.ProjectionMetrics{NPV: decimal.NewFromInt(42)}
	repo.On("GetByID", ctx, id).Return(&domain.Projection{
		ID:      id,
		UserID:  userID,
		Input:   sampleInput(),
		Metrics: previous,
	}, nil)

	p, err := service.RecalculateMetrics(ctx, userID, id)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, domain.ErrNotComputable)
	// Stored fields must not be overwritten
	repo.AssertNotCalled(t, "UpdateMetrics", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecalculateMetrics_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProjectionRepository)
	service := newService(repo)

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, domain.ErrNotFound)

	_, err := service.RecalculateMetrics(ctx, uuid.New(), id)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	repo := new(MockProjectionRepository)
	service := newService(repo)

	yearly, metrics, err := service.Preview(sampleInput())

	require.NoError(t, err)
	assert.Len(t, yearly, 5)
	assert.NotNil(t, metrics.PaybackPeriod)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
