// Package pgstore keeps indicator rows and the update log in a hosted
// PostgreSQL database through GORM.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"moodcycle/internal/domain"
	"moodcycle/internal/store"
	"moodcycle/internal/util"
)

// BatchSize is the number of rows sent per upsert statement.
const BatchSize = 100

// Compile-time interface check.
var _ store.Backend = (*Store)(nil)

// Store implements store.Backend on a GORM connection.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn, retrying transient failures, and migrates the
// tables.
func Open(ctx context.Context, dsn string) (*Store, error) {
	var db *gorm.DB
	err := util.Retry(ctx, 3, time.Second, func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return New(db)
}

// New wraps an open GORM connection and migrates the tables.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&EmotionCycleModel{}, &UpdateLogModel{}); err != nil {
		return nil, fmt.Errorf("migrating tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EmotionCycleModel is one indicator row. Undefined rates are NULL.
type EmotionCycleModel struct {
	TradingDate    string  `gorm:"column:trading_date;primaryKey;size:10"`
	UpCount        int     `gorm:"column:up_count;not null"`
	DownCount      int     `gorm:"column:down_count;not null"`
	Up5Count       int     `gorm:"column:up5_count;not null"`
	Down5Count     int     `gorm:"column:down5_count;not null"`
	LimitUpCount   int     `gorm:"column:limit_up_count;not null"`
	LimitDownCount int     `gorm:"column:limit_down_count;not null"`
	BreakCount     int     `gorm:"column:break_count;not null"`
	BreakRate      float64 `gorm:"column:break_rate;not null"`
	FirstBoard     int     `gorm:"column:first_board;not null"`
	SecondBoard    int     `gorm:"column:second_board;not null"`
	ThirdBoard     int     `gorm:"column:third_board;not null"`
	AboveThird     int     `gorm:"column:above_third;not null"`
	MaxBoard       int     `gorm:"column:max_board;not null"`
	FanpaoCount    int     `gorm:"column:fanpao_count;not null"`
	LimitAmount    float64 `gorm:"column:limit_amount;not null"`
	SealAmount     float64 `gorm:"column:seal_amount;not null"`

	FirstRedRate  *float64 `gorm:"column:first_red_rate"`
	FirstPremium  *float64 `gorm:"column:first_premium"`
	SecondRedRate *float64 `gorm:"column:second_red_rate"`
	SecondPremium *float64 `gorm:"column:second_premium"`
	ThirdRedRate  *float64 `gorm:"column:third_red_rate"`
	ThirdPremium  *float64 `gorm:"column:third_premium"`
	Advance1To2   *float64 `gorm:"column:advance_1to2"`
	Advance2To3   *float64 `gorm:"column:advance_2to3"`
	Advance3To4   *float64 `gorm:"column:advance_3to4"`
	Advance3Plus  *float64 `gorm:"column:advance_3plus"`

	YesterdayFirstRedRate     *float64 `gorm:"column:yesterday_first_red_rate"`
	YesterdayFirstPremium     *float64 `gorm:"column:yesterday_first_premium"`
	YesterdaySecondRedRate    *float64 `gorm:"column:yesterday_second_red_rate"`
	YesterdaySecondPremium    *float64 `gorm:"column:yesterday_second_premium"`
	YesterdayThirdRedRate     *float64 `gorm:"column:yesterday_third_red_rate"`
	YesterdayThirdPremium     *float64 `gorm:"column:yesterday_third_premium"`
	YesterdayThirdPlusRedRate *float64 `gorm:"column:yesterday_third_plus_red_rate"`
	YesterdayThirdPlusPremium *float64 `gorm:"column:yesterday_third_plus_premium"`
}

func (EmotionCycleModel) TableName() string {
	return "emotion_cycle"
}

// UpdateLogModel is one update-log entry.
type UpdateLogModel struct {
	ID        uint      `gorm:"primaryKey"`
	Mode      string    `gorm:"size:16;not null"`
	StartDate string    `gorm:"size:10"`
	EndDate   string    `gorm:"size:10"`
	DaysCount int       `gorm:"not null"`
	Status    string    `gorm:"size:16;not null"`
	Message   string    `gorm:"type:text"`
	RunAt     time.Time `gorm:"not null;index"`
}

func (UpdateLogModel) TableName() string {
	return "update_log"
}

func toModel(r *domain.IndicatorRecord) EmotionCycleModel {
	return EmotionCycleModel{
		TradingDate:    util.FormatDate(r.TradeDate),
		UpCount:        r.UpCount,
		DownCount:      r.DownCount,
		Up5Count:       r.Up5Count,
		Down5Count:     r.Down5Count,
		LimitUpCount:   r.LimitUpCount,
		LimitDownCount: r.LimitDownCount,
		BreakCount:     r.BreakCount,
		BreakRate:      r.BreakRate,
		FirstBoard:     r.FirstBoard,
		SecondBoard:    r.SecondBoard,
		ThirdBoard:     r.ThirdBoard,
		AboveThird:     r.AboveThird,
		MaxBoard:       r.MaxBoard,
		FanpaoCount:    r.FanpaoCount,
		LimitAmount:    r.LimitAmount,
		SealAmount:     r.SealAmount,

		FirstRedRate:  r.FirstRedRate.Ptr(),
		FirstPremium:  r.FirstPremium.Ptr(),
		SecondRedRate: r.SecondRedRate.Ptr(),
		SecondPremium: r.SecondPremium.Ptr(),
		ThirdRedRate:  r.ThirdRedRate.Ptr(),
		ThirdPremium:  r.ThirdPremium.Ptr(),
		Advance1To2:   r.Advance1To2.Ptr(),
		Advance2To3:   r.Advance2To3.Ptr(),
		Advance3To4:   r.Advance3To4.Ptr(),
		Advance3Plus:  r.Advance3Plus.Ptr(),

		YesterdayFirstRedRate:     r.YesterdayFirstRedRate.Ptr(),
		YesterdayFirstPremium:     r.YesterdayFirstPremium.Ptr(),
		YesterdaySecondRedRate:    r.YesterdaySecondRedRate.Ptr(),
		YesterdaySecondPremium:    r.YesterdaySecondPremium.Ptr(),
		YesterdayThirdRedRate:     r.YesterdayThirdRedRate.Ptr(),
		YesterdayThirdPremium:     r.YesterdayThirdPremium.Ptr(),
		YesterdayThirdPlusRedRate: r.YesterdayThirdPlusRedRate.Ptr(),
		YesterdayThirdPlusPremium: r.YesterdayThirdPlusPremium.Ptr(),
	}
}

func toRecord(m EmotionCycleModel) (domain.IndicatorRecord, error) {
	date, err := util.ParseDate(m.TradingDate)
	if err != nil {
		return domain.IndicatorRecord{}, err
	}
	return domain.IndicatorRecord{
		TradeDate:      date,
		UpCount:        m.UpCount,
		DownCount:      m.DownCount,
		Up5Count:       m.Up5Count,
		Down5Count:     m.Down5Count,
		LimitUpCount:   m.LimitUpCount,
		LimitDownCount: m.LimitDownCount,
		BreakCount:     m.BreakCount,
		BreakRate:      m.BreakRate,
		FirstBoard:     m.FirstBoard,
		SecondBoard:    m.SecondBoard,
		ThirdBoard:     m.ThirdBoard,
		AboveThird:     m.AboveThird,
		MaxBoard:       m.MaxBoard,
		FanpaoCount:    m.FanpaoCount,
		LimitAmount:    m.LimitAmount,
		SealAmount:     m.SealAmount,

		FirstRedRate:  null.FloatFromPtr(m.FirstRedRate),
		FirstPremium:  null.FloatFromPtr(m.FirstPremium),
		SecondRedRate: null.FloatFromPtr(m.SecondRedRate),
		SecondPremium: null.FloatFromPtr(m.SecondPremium),
		ThirdRedRate:  null.FloatFromPtr(m.ThirdRedRate),
		ThirdPremium:  null.FloatFromPtr(m.ThirdPremium),
		Advance1To2:   null.FloatFromPtr(m.Advance1To2),
		Advance2To3:   null.FloatFromPtr(m.Advance2To3),
		Advance3To4:   null.FloatFromPtr(m.Advance3To4),
		Advance3Plus:  null.FloatFromPtr(m.Advance3Plus),

		YesterdayFirstRedRate:     null.FloatFromPtr(m.YesterdayFirstRedRate),
		YesterdayFirstPremium:     null.FloatFromPtr(m.YesterdayFirstPremium),
		YesterdaySecondRedRate:    null.FloatFromPtr(m.YesterdaySecondRedRate),
		YesterdaySecondPremium:    null.FloatFromPtr(m.YesterdaySecondPremium),
		YesterdayThirdRedRate:     null.FloatFromPtr(m.YesterdayThirdRedRate),
		YesterdayThirdPremium:     null.FloatFromPtr(m.YesterdayThirdPremium),
		YesterdayThirdPlusRedRate: null.FloatFromPtr(m.YesterdayThirdPlusRedRate),
		YesterdayThirdPlusPremium: null.FloatFromPtr(m.YesterdayThirdPlusPremium),
	}, nil
}

// UpsertIndicators writes records in batches, updating every column of an
// existing trading date.
func (s *Store) UpsertIndicators(ctx context.Context, records []domain.IndicatorRecord) error {
	if len(records) == 0 {
		return nil
	}
	ms := make([]EmotionCycleModel, 0, len(records))
	for i := range records {
		ms = append(ms, toModel(&records[i]))
	}

	cols := domain.IndicatorColumns()
	updates := make([]string, len(cols))
	for i, c := range cols {
		updates[i] = c.Name
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: domain.ColumnTradeDate}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).CreateInBatches(&ms, BatchSize).Error
	if err != nil {
		return fmt.Errorf("upserting indicators: %w", err)
	}
	return nil
}

// LoadIndicators returns the rows within q, newest first.
func (s *Store) LoadIndicators(ctx context.Context, q store.Query) ([]domain.IndicatorRecord, error) {
	tx := s.db.WithContext(ctx).Order(domain.ColumnTradeDate + " DESC")
	if !q.Start.IsZero() {
		tx = tx.Where(domain.ColumnTradeDate+" >= ?", util.FormatDate(q.Start))
	}
	if !q.End.IsZero() {
		tx = tx.Where(domain.ColumnTradeDate+" <= ?", util.FormatDate(q.End))
	}

	var rows []EmotionCycleModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying indicators: %w", err)
	}
	out := make([]domain.IndicatorRecord, 0, len(rows))
	for _, m := range rows {
		rec, err := toRecord(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DateBounds returns the first and last stored trading dates.
func (s *Store) DateBounds(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var bounds struct {
		First *string
		Last  *string
	}
	err = s.db.WithContext(ctx).Model(&EmotionCycleModel{}).
		Select("MIN(trading_date) AS first, MAX(trading_date) AS last").
		Scan(&bounds).Error
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("querying date bounds: %w", err)
	}
	if bounds.First == nil || bounds.Last == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	if first, err = util.ParseDate(*bounds.First); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if last, err = util.ParseDate(*bounds.Last); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return first, last, true, nil
}

// LogRun inserts an update_log row.
func (s *Store) LogRun(ctx context.Context, run store.Run) error {
	m := UpdateLogModel{
		Mode:      run.Mode,
		StartDate: optionalDate(run.Start),
		EndDate:   optionalDate(run.End),
		DaysCount: run.Days,
		Status:    string(run.Status),
		Message:   run.Message,
		RunAt:     run.RunAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("inserting update log: %w", err)
	}
	return nil
}

// LastRun returns the most recently inserted update_log row.
func (s *Store) LastRun(ctx context.Context) (*store.Run, error) {
	var m UpdateLogModel
	err := s.db.WithContext(ctx).Order("id DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying update log: %w", err)
	}

	run := &store.Run{
		Mode:    m.Mode,
		Days:    m.DaysCount,
		Status:  store.RunStatus(m.Status),
		Message: m.Message,
		RunAt:   m.RunAt.UTC(),
	}
	if m.StartDate != "" {
		if run.Start, err = util.ParseDate(m.StartDate); err != nil {
			return nil, err
		}
	}
	if m.EndDate != "" {
		if run.End, err = util.ParseDate(m.EndDate); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func optionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return util.FormatDate(t)
}
