//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/bizplan-backend/internal/domain"
)

var testDB *DB

// TestMain connects to the database and applies the schema
func TestMain(m *testing.M) {
	var err error
	testDB, err = NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := testDB.Migrate(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// getDBConnectionString returns the database connection string from environment or defaults
func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("DB_HOST", "localhost"),
		env("DB_PORT", "5432"),
		env("DB_USER", "postgres"),
		env("DB_PASSWORD", "postgres"),
		env("DB_NAME", "bizplan"),
	)
}

func TestMigrate_IsRepeatable(t *testing.T) {
	require.NoError(t, testDB.Migrate(context.Background()))
}

func TestProjectionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectionRepository(testDB)

	payback := 2
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &domain.Projection{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Name:   "Integration plan",
		Input: domain.ProjectionInput{
			BaseYear:          2024,
			GrowthRate:        decimal.NewFromInt(10),
			InflationRate:     decimal.NewFromInt(5),
			DiscountRate:      decimal.NewFromInt(10),
			InitialInvestment: decimal.NewFromInt(50_000_000),
			BaseRevenue:       decimal.NewFromInt(100_000_000),
			BaseCost:          decimal.NewFromInt(60_000_000),
		},
		YearlyProjections: []domain.YearlyProjection{
			{Year: 1, Revenue: decimal.NewFromInt(110_000_000), Cost: decimal.NewFromInt(63_000_000), NetProfit: decimal.NewFromInt(47_000_000)},
			{Year: 2, Revenue: decimal.NewFromInt(121_000_000), Cost: decimal.RequireFromString("66150000"), NetProfit: decimal.RequireFromString("54850000")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, repo.Create(ctx, p))

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Metrics, "metrics stay NULL until computed")
	require.Len(t, stored.YearlyProjections, 2)
	assert.True(t, stored.YearlyProjections[1].NetProfit.Equal(decimal.NewFromInt(54_850_000)))

	// The blob must hold numbers, not quoted strings
	var kind string
	err = testDB.QueryRowContext(ctx,
		`SELECT jsonb_typeof(yearly_projections->0->'revenue') FROM projections WHERE id = $1`, p.ID,
	).Scan(&kind)
	require.NoError(t, err)
	assert.Equal(t, "number", kind)

	metrics := domain.ProjectionMetrics{
		NPV:           decimal.RequireFromString("123.45"),
		ROI:           decimal.RequireFromString("546.89"),
		IRR:           decimal.RequireFromString("101.5"),
		PaybackPeriod: &payback,
	}
	require.NoError(t, repo.UpdateMetrics(ctx, p.ID, metrics))

	stored, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Metrics)
	assert.True(t, stored.Metrics.ROI.Equal(metrics.ROI))
	assert.Equal(t, 2, *stored.Metrics.PaybackPeriod)

	list, err := repo.ListByUser(ctx, p.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrNotFound)
}

func TestForecastDataRepository_ConcurrentUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	repo := NewForecastDataRepository(testDB)
	userID := uuid.New()

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := &domain.ForecastDataPoint{
				UserID:         userID,
				Month:          3,
				Year:           2024,
				IncomeSales:    decimal.NewFromInt(int64(1000 + i)),
				SeasonalFactor: decimal.NewFromInt(1),
				CreatedAt:      time.Now().UTC(),
				UpdatedAt:      time.Now().UTC(),
			}
			errs[i] = repo.Upsert(ctx, p)
			ids[i] = p.ID
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "every save must land on the same row")
	}

	points, err := repo.ListBySimulation(ctx, userID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestForecastResultRepository_ReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dataRepo := NewForecastDataRepository(testDB)
	resultRepo := NewForecastResultRepository(testDB)
	userID := uuid.New()

	seed := &domain.ForecastDataPoint{
		UserID:         userID,
		Month:          12,
		Year:           2024,
		IncomeSales:    decimal.NewFromInt(1000),
		SeasonalFactor: decimal.NewFromInt(1),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, dataRepo.Upsert(ctx, seed))

	build := func() ([]domain.ForecastResult, []domain.ForecastInsight) {
		month, year := 1, 2025
		results := []domain.ForecastResult{
			{ID: uuid.New(), UserID: userID, Month: 1, Year: 2025, ForecastIncome: decimal.NewFromInt(1000), ForecastMargin: decimal.NewFromInt(40), ConfidenceLevel: decimal.NewFromInt(72), Method: domain.ForecastMethodExponentialSmoothing},
			{ID: uuid.New(), UserID: userID, Month: 2, Year: 2025, ForecastIncome: decimal.NewFromInt(1010), ForecastMargin: decimal.NewFromInt(41), ConfidenceLevel: decimal.RequireFromString("70.5"), Method: domain.ForecastMethodExponentialSmoothing},
		}
		insights := []domain.ForecastInsight{
			{ID: uuid.New(), UserID: userID, Type: "low_margin", Title: "t", Description: "d", Value: 5, Severity: domain.SeverityWarning},
			{ID: uuid.New(), UserID: userID, Type: "negative_profit", Title: "t", Description: "d", Value: -1, Month: &month, Year: &year, Severity: domain.SeverityCritical},
		}
		return results, insights
	}

	for run := 0; run < 2; run++ {
		results, insights := build()
		require.NoError(t, resultRepo.Replace(ctx, seed.ID, results, insights))
	}

	results, err := resultRepo.ListResults(ctx, seed.ID)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Month)

	insights, err := resultRepo.ListInsights(ctx, seed.ID)
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Nil(t, insights[0].Month)
	require.NotNil(t, insights[1].Month)
	assert.Equal(t, 1, *insights[1].Month)
}

func TestForecastResultRepository_ConcurrentReplaceKeepsOneSet(t *testing.T) {
	ctx := context.Background()
	dataRepo := NewForecastDataRepository(testDB)
	resultRepo := NewForecastResultRepository(testDB)
	userID := uuid.New()

	seed := &domain.ForecastDataPoint{
		UserID:         userID,
		Month:          6,
		Year:           2024,
		IncomeSales:    decimal.NewFromInt(500),
		SeasonalFactor: decimal.NewFromInt(1),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	require.NoError(t, dataRepo.Upsert(ctx, seed))

	const runs = 6
	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results := make([]domain.ForecastResult, 0, 3)
			for m := 7; m <= 9; m++ {
				results = append(results, domain.ForecastResult{
					ID:              uuid.New(),
					UserID:          userID,
					Month:           m,
					Year:            2024,
					ForecastIncome:  decimal.NewFromInt(int64(500 + i)),
					ConfidenceLevel: decimal.NewFromInt(72),
					Method:          domain.ForecastMethodExponentialSmoothing,
				})
			}
			errs[i] = resultRepo.Replace(ctx, seed.ID, results, []domain.ForecastInsight{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	results, err := resultRepo.ListResults(ctx, seed.ID)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestForecastResultRepository_ReplaceUnknownDataPoint(t *testing.T) {
	resultRepo := NewForecastResultRepository(testDB)

	err := resultRepo.Replace(context.Background(), uuid.New(), []domain.ForecastResult{}, []domain.ForecastInsight{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerRepository_ListByYear(t *testing.T) {
	ctx := context.Background()
	sims := NewSimulationRepository(testDB)
	ledger := NewLedgerRepository(testDB)

	sim := &domain.Simulation{ID: uuid.New(), UserID: uuid.New(), Name: "FY24", Year: 2024, CreatedAt: time.Now().UTC()}
	require.NoError(t, sims.Create(ctx, sim))

	dates := []time.Time{
		time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, ledger.Create(ctx, &domain.LedgerEntry{
			ID:           uuid.New(),
			SimulationID: sim.ID,
			UserID:       sim.UserID,
			Type:         domain.EntryTypeIncome,
			Category:     domain.CategorySales,
			Amount:       decimal.NewFromInt(100),
			Date:         d,
		}))
	}

	entries, err := ledger.ListByYear(ctx, sim.ID, 2024)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, time.January, entries[0].Date.Month())
	assert.Equal(t, time.March, entries[1].Date.Month())

	_, err = sims.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
