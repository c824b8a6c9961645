package forecast

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

// memoryDataRepo is an in-memory ForecastDataRepository keyed like the unique index
type memoryDataRepo struct {
	points map[uuid.UUID]domain.ForecastDataPoint
}

func newMemoryDataRepo() *memoryDataRepo {
	return &memoryDataRepo{points: make(map[uuid.UUID]domain.ForecastDataPoint)}
}

func (r *memoryDataRepo) Upsert(ctx context.Context, p *domain.ForecastDataPoint) error {
	for id, existing := range r.points {
		if existing.UserID == p.UserID && existing.SimulationID == p.SimulationID &&
			existing.Year == p.Year && existing.Month == p.Month {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			r.points[id] = *p
			return nil
		}
	}
	p.ID = uuid.New()
	r.points[p.ID] = *p
	return nil
}

func (r *memoryDataRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ForecastDataPoint, error) {
	p, ok := r.points[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryDataRepo) ListBySimulation(ctx context.Context, userID, simulationID uuid.UUID) ([]domain.ForecastDataPoint, error) {
	var out []domain.ForecastDataPoint
	for _, p := range r.points {
		if p.UserID == userID && p.SimulationID == simulationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// memoryResultRepo replaces result sets wholesale like the transactional repository
type memoryResultRepo struct {
	results  map[uuid.UUID][]domain.ForecastResult
	insights map[uuid.UUID][]domain.ForecastInsight
}

func newMemoryResultRepo() *memoryResultRepo {
	return &memoryResultRepo{
		results:  make(map[uuid.UUID][]domain.ForecastResult),
		insights: make(map[uuid.UUID][]domain.ForecastInsight),
	}
}

func (r *memoryResultRepo) Replace(ctx context.Context, dataID uuid.UUID, results []domain.ForecastResult, insights []domain.ForecastInsight) error {
	r.results[dataID] = append(make([]domain.ForecastResult, 0, len(results)), results...)
	r.insights[dataID] = append(make([]domain.ForecastInsight, 0, len(insights)), insights...)
	return nil
}

func (r *memoryResultRepo) ListResults(ctx context.Context, dataID uuid.UUID) ([]domain.ForecastResult, error) {
	return r.results[dataID], nil
}

func (r *memoryResultRepo) ListInsights(ctx context.Context, dataID uuid.UUID) ([]domain.ForecastInsight, error) {
	return r.insights[dataID], nil
}

func (r *memoryResultRepo) rowCount() int {
	n := 0
	for _, rs := range r.results {
		n += len(rs)
	}
	for _, is := range r.insights {
		n += len(is)
	}
	return n
}

// MockSimulationRepository is a mock implementation of SimulationRepository for testing
type MockSimulationRepository struct {
	mock.Mock
}

func (m *MockSimulationRepository) Create(ctx context.Context, s *domain.Simulation) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSimulationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Simulation), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByYear(ctx context.Context, simulationID uuid.UUID, year int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, simulationID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

type fixture struct {
	service *ForecastService
	data    *memoryDataRepo
	results *memoryResultRepo
	sims    *MockSimulationRepository
	ledger  *MockLedgerRepository
}

func newFixture() *fixture {
	f := &fixture{
		data:    newMemoryDataRepo(),
		results: newMemoryResultRepo(),
		sims:    new(MockSimulationRepository),
		ledger:  new(MockLedgerRepository),
	}
	f.service = NewForecastService(f.data, f.results, f.sims, f.ledger, zap.NewNop())
	return f
}

func (f *fixture) seed(t *testing.T, userID uuid.UUID, month int, income int64) *domain.ForecastDataPoint {
	t.Helper()
	p := point(month, 2024, income, income/2)
	require.NoError(t, f.service.SaveDataPoint(context.Background(), userID, &p))
	return &p
}

func TestSaveDataPoint_UpsertKeepsSingleRow(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	first := f.seed(t, userID, 3, 1000)
	second := f.seed(t, userID, 3, 1800)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, f.data.points, 1)
	stored := f.data.points[first.ID]
	assert.True(t, stored.IncomeSales.Equal(dec(1800)), "later save overwrites in place")
}

func TestSaveDataPoint_InvalidMonth(t *testing.T) {
	f := newFixture()
	p := point(13, 2024, 100, 50)

	err := f.service.SaveDataPoint(context.Background(), uuid.New(), &p)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.data.points)
}

func TestSaveDataPoint_ForeignSimulation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	simID := uuid.New()
	f.sims.On("GetByID", ctx, simID).Return(&domain.Simulation{ID: simID, UserID: uuid.New()}, nil)

	p := point(1, 2024, 100, 50)
	p.SimulationID = simID
	err := f.service.SaveDataPoint(ctx, uuid.New(), &p)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.data.points)
}

func TestSeedFromSimulation_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()
	simID := uuid.New()

	f.sims.On("GetByID", ctx, simID).Return(&domain.Simulation{ID: simID, UserID: userID, Name: "FY24", Year: 2024}, nil)
	f.ledger.On("ListByYear", ctx, simID, 2024).Return([]domain.LedgerEntry{
		entry(domain.EntryTypeIncome, domain.CategorySales, 3000, time.January, 10),
		entry(domain.EntryTypeExpense, domain.CategoryOperational, 1000, time.February, 10),
		entry(domain.EntryTypeIncome, domain.CategorySales, 3000, time.April, 10),
	}, nil)

	p, err := f.service.SeedFromSimulation(ctx, userID, simID, 2024)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, simID, p.SimulationID)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, 4, p.Month)
	assert.True(t, p.IncomeSales.Equal(dec(2000)), "6000 over 3 active months, got %s", p.IncomeSales)
	assert.Len(t, f.data.points, 1)

	// Re-seeding the same year overwrites rather than duplicating
	again, err := f.service.SeedFromSimulation(ctx, userID, simID, 2024)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, f.data.points, 1)
}

func TestSeedFromSimulation_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()
	simID := uuid.New()

	f.sims.On("GetByID", ctx, simID).Return(&domain.Simulation{ID: simID, UserID: userID}, nil)
	f.ledger.On("ListByYear", ctx, simID, 2025).Return([]domain.LedgerEntry{}, nil)

	p, err := f.service.SeedFromSimulation(ctx, userID, simID, 2025)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, domain.ErrNotComputable)
	assert.Empty(t, f.data.points)
}

func TestSeedFromSimulation_OtherUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	simID := uuid.New()

	f.sims.On("GetByID", ctx, simID).Return(&domain.Simulation{ID: simID, UserID: uuid.New()}, nil)

	_, err := f.service.SeedFromSimulation(ctx, uuid.New(), simID, 2024)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.ledger.AssertNotCalled(t, "ListByYear", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_RegenerationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	f.seed(t, userID, 1, 1000)
	f.seed(t, userID, 2, 1100)
	seed := f.seed(t, userID, 3, 1200)

	first, err := f.service.Generate(ctx, userID, seed.ID, domain.ForecastMethodAuto, 12)
	require.NoError(t, err)
	rowsAfterFirst := f.results.rowCount()

	second, err := f.service.Generate(ctx, userID, seed.ID, domain.ForecastMethodAuto, 12)
	require.NoError(t, err)

	assert.Equal(t, rowsAfterFirst, f.results.rowCount(), "regeneration must replace, not append")
	assert.Len(t, f.results.results[seed.ID], 12)
	assert.Equal(t, len(first.Insights), len(second.Insights))
	for _, r := range second.Results {
		assert.Equal(t, seed.ID, r.ForecastDataID)
		assert.Equal(t, userID, r.UserID)
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.NotEqual(t, domain.ForecastMethodAuto, r.Method)
	}
}

func TestGenerate_IgnoresPointsAfterSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	f.seed(t, userID, 1, 1000)
	seed := f.seed(t, userID, 2, 1000)
	f.seed(t, userID, 3, 9000)

	out, err := f.service.Generate(ctx, userID, seed.ID, domain.ForecastMethodExponentialSmoothing, 1)

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 3, out.Results[0].Month)
	assert.True(t, out.Results[0].ForecastIncome.Equal(dec(1000)), "march actuals must not leak in, got %s", out.Results[0].ForecastIncome)
}

func TestGenerate_OtherUser(t *testing.T) {
	f := newFixture()
	seed := f.seed(t, uuid.New(), 1, 1000)

	_, err := f.service.Generate(context.Background(), uuid.New(), seed.ID, domain.ForecastMethodAuto, 6)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.results.rowCount())
}

func TestGenerate_InvalidHorizonStoresNothing(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	seed := f.seed(t, userID, 1, 1000)

	_, err := f.service.Generate(context.Background(), userID, seed.ID, domain.ForecastMethodAuto, 121)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.results.rowCount())
}

func TestGenerate_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.Generate(context.Background(), uuid.New(), uuid.New(), domain.ForecastMethodAuto, 6)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResults_ReturnsStoredForecast(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()
	seed := f.seed(t, userID, 6, 1000)

	generated, err := f.service.Generate(ctx, userID, seed.ID, domain.ForecastMethodAuto, 3)
	require.NoError(t, err)

	stored, err := f.service.Results(ctx, userID, seed.ID)

	require.NoError(t, err)
	assert.Equal(t, seed.ID, stored.Data.ID)
	assert.Equal(t, generated.Results, stored.Results)
	assert.Equal(t, generated.Insights, stored.Insights)
}
