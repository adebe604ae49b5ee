package pgstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moodcycle/internal/domain"
	"moodcycle/internal/store"
)

// setupTestStore prepares a Store over an in-memory SQLite database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := New(db)
	require.NoError(t, err, "failed to migrate tables")
	return s
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestNew(t *testing.T) {
	s := setupTestStore(t)
	assert.NotNil(t, s)
	assert.True(t, s.db.Migrator().HasTable(&EmotionCycleModel{}))
	assert.True(t, s.db.Migrator().HasTable(&UpdateLogModel{}))
}

func TestUpsertAndLoadIndicators(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := domain.IndicatorRecord{
		TradeDate:    day("2026-03-02"),
		UpCount:      2500,
		LimitUpCount: 70,
		BreakRate:    18.6,
		MaxBoard:     5,
		FirstRedRate: null.FloatFrom(0),
		Advance1To2:  null.FloatFrom(27.5),
	}
	require.NoError(t, s.UpsertIndicators(ctx, []domain.IndicatorRecord{rec}))

	rec.UpCount = 2600
	rec.Advance1To2 = null.Float{}
	later := domain.IndicatorRecord{TradeDate: day("2026-03-03"), UpCount: 10}
	require.NoError(t, s.UpsertIndicators(ctx, []domain.IndicatorRecord{rec, later}))

	got, err := s.LoadIndicators(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].TradeDate.Equal(day("2026-03-03")), "newest first")
	assert.Equal(t, 2600, got[1].UpCount)
	assert.Equal(t, 18.6, got[1].BreakRate)
	assert.True(t, got[1].FirstRedRate.Valid, "zero red rate must stay defined")
	assert.Equal(t, 0.0, got[1].FirstRedRate.Float64)
	assert.False(t, got[1].Advance1To2.Valid, "cleared rate must be undefined")

	ranged, err := s.LoadIndicators(ctx, store.Query{End: day("2026-03-02")})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, 5, ranged[0].MaxBoard)
}

func TestUpsertIndicatorsBatches(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	start := day("2025-01-01")
	recs := make([]domain.IndicatorRecord, BatchSize*2+5)
	for i := range recs {
		recs[i] = domain.IndicatorRecord{TradeDate: start.AddDate(0, 0, i), UpCount: i}
	}
	require.NoError(t, s.UpsertIndicators(ctx, recs))

	var count int64
	require.NoError(t, s.db.Model(&EmotionCycleModel{}).Count(&count).Error)
	assert.Equal(t, int64(len(recs)), count)

	first, last, ok, err := s.DateBounds(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, first.Equal(start), fmt.Sprintf("first = %v", first))
	assert.True(t, last.Equal(start.AddDate(0, 0, len(recs)-1)), fmt.Sprintf("last = %v", last))
}

func TestDateBoundsEmpty(t *testing.T) {
	s := setupTestStore(t)
	_, _, ok, err := s.DateBounds(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunLog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	last, err := s.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.LogRun(ctx, store.Run{
		Mode: "init", Start: day("2026-01-01"), End: day("2026-03-01"),
		Days: 40, Status: store.RunSuccess, RunAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.LogRun(ctx, store.Run{
		Mode: "range", Days: 0, Status: store.RunFailed, Message: "no trading days",
		RunAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}))

	last, err = s.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "range", last.Mode)
	assert.Equal(t, store.RunFailed, last.Status)
	assert.Equal(t, "no trading days", last.Message)
	assert.True(t, last.Start.IsZero())
}
