package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/guregu/null/v5"
	"github.com/parquet-go/parquet-go"

	"moodcycle/internal/domain"
	"moodcycle/internal/util"
)

// Compile-time interface checks.
var _ IndicatorStore = (*ParquetStore)(nil)
var _ SnapshotStore = (*ParquetStore)(nil)
var _ RunLog = (*ParquetStore)(nil)

// ParquetStore implements every store interface using Parquet files on disk.
//
//	<DataDir>/cn/emotion_cycle.parquet
//	<DataDir>/cn/update_log.parquet
//	<DataDir>/cn/snapshot/<YYYY-MM-DD>/{quotes,limits}.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// Close is a no-op; files are closed after every operation.
func (s *ParquetStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// IndicatorRow is the Parquet schema for indicator rows. Undefined rates are
// stored as NULL.
type IndicatorRow struct {
	TradingDate    string  `parquet:"trading_date"`
	UpCount        int64   `parquet:"up_count"`
	DownCount      int64   `parquet:"down_count"`
	Up5Count       int64   `parquet:"up5_count"`
	Down5Count     int64   `parquet:"down5_count"`
	LimitUpCount   int64   `parquet:"limit_up_count"`
	LimitDownCount int64   `parquet:"limit_down_count"`
	BreakCount     int64   `parquet:"break_count"`
	BreakRate      float64 `parquet:"break_rate"`
	FirstBoard     int64   `parquet:"first_board"`
	SecondBoard    int64   `parquet:"second_board"`
	ThirdBoard     int64   `parquet:"third_board"`
	AboveThird     int64   `parquet:"above_third"`
	MaxBoard       int64   `parquet:"max_board"`
	FanpaoCount    int64   `parquet:"fanpao_count"`
	LimitAmount    float64 `parquet:"limit_amount"`
	SealAmount     float64 `parquet:"seal_amount"`

	FirstRedRate  *float64 `parquet:"first_red_rate"`
	FirstPremium  *float64 `parquet:"first_premium"`
	SecondRedRate *float64 `parquet:"second_red_rate"`
	SecondPremium *float64 `parquet:"second_premium"`
	ThirdRedRate  *float64 `parquet:"third_red_rate"`
	ThirdPremium  *float64 `parquet:"third_premium"`
	Advance1To2   *float64 `parquet:"advance_1to2"`
	Advance2To3   *float64 `parquet:"advance_2to3"`
	Advance3To4   *float64 `parquet:"advance_3to4"`
	Advance3Plus  *float64 `parquet:"advance_3plus"`

	YesterdayFirstRedRate     *float64 `parquet:"yesterday_first_red_rate"`
	YesterdayFirstPremium     *float64 `parquet:"yesterday_first_premium"`
	YesterdaySecondRedRate    *float64 `parquet:"yesterday_second_red_rate"`
	YesterdaySecondPremium    *float64 `parquet:"yesterday_second_premium"`
	YesterdayThirdRedRate     *float64 `parquet:"yesterday_third_red_rate"`
	YesterdayThirdPremium     *float64 `parquet:"yesterday_third_premium"`
	YesterdayThirdPlusRedRate *float64 `parquet:"yesterday_third_plus_red_rate"`
	YesterdayThirdPlusPremium *float64 `parquet:"yesterday_third_plus_premium"`
}

// QuoteRecord is the Parquet schema for a stored quote row.
type QuoteRecord struct {
	Code     string   `parquet:"ts_code"`
	PctChg   *float64 `parquet:"pct_chg"`
	Open     *float64 `parquet:"open"`
	High     *float64 `parquet:"high"`
	Low      *float64 `parquet:"low"`
	Close    *float64 `parquet:"close"`
	PreClose *float64 `parquet:"pre_close"`
	Amount   *float64 `parquet:"amount"`
}

// LimitRecord is the Parquet schema for a stored limit-move row.
type LimitRecord struct {
	Code       string   `parquet:"ts_code"`
	Name       string   `parquet:"name"`
	Industry   string   `parquet:"industry"`
	Tag        string   `parquet:"limit"`
	LimitTimes *int64   `parquet:"limit_times"`
	PctChg     *float64 `parquet:"pct_chg"`
	Close      *float64 `parquet:"close"`
	Amount     *float64 `parquet:"amount"`
	FdAmount   *float64 `parquet:"fd_amount"`
	Open       *float64 `parquet:"open"`
	High       *float64 `parquet:"high"`
	Low        *float64 `parquet:"low"`
	PreClose   *float64 `parquet:"pre_close"`
}

// RunRecord is the Parquet schema for an update-log entry.
type RunRecord struct {
	Mode      string `parquet:"mode"`
	StartDate string `parquet:"start_date"`
	EndDate   string `parquet:"end_date"`
	DaysCount int64  `parquet:"days_count"`
	Status    string `parquet:"status"`
	Message   string `parquet:"message"`
	RunAt     int64  `parquet:"run_at,timestamp(millisecond)"` // Unix ms
}

// ---------------------------------------------------------------------------
// IndicatorStore implementation
// ---------------------------------------------------------------------------

// UpsertIndicators merges records into the indicator file by trading date.
func (s *ParquetStore) UpsertIndicators(_ context.Context, records []domain.IndicatorRecord) error {
	if len(records) == 0 {
		return nil
	}
	path := s.indicatorPath()

	existing, err := readParquetOptional[IndicatorRow](path)
	if err != nil {
		return fmt.Errorf("reading indicators: %w", err)
	}
	incoming := make([]IndicatorRow, len(records))
	for i := range records {
		incoming[i] = toIndicatorRow(&records[i])
	}
	if err := writeParquetFile(path, mergeIndicatorRows(existing, incoming)); err != nil {
		return fmt.Errorf("writing indicators: %w", err)
	}
	return nil
}

// LoadIndicators returns the stored rows within q, newest first.
func (s *ParquetStore) LoadIndicators(_ context.Context, q Query) ([]domain.IndicatorRecord, error) {
	rows, err := readParquetOptional[IndicatorRow](s.indicatorPath())
	if err != nil {
		return nil, fmt.Errorf("reading indicators: %w", err)
	}
	var out []domain.IndicatorRecord
	for _, r := range rows {
		rec, err := fromIndicatorRow(r)
		if err != nil {
			return nil, err
		}
		if q.Contains(rec.TradeDate) {
			out = append(out, rec)
		}
	}
	SortDescending(out)
	return out, nil
}

// DateBounds returns the first and last stored trading dates.
func (s *ParquetStore) DateBounds(_ context.Context) (first, last time.Time, ok bool, err error) {
	rows, err := readParquetOptional[IndicatorRow](s.indicatorPath())
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("reading indicators: %w", err)
	}
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false, nil
	}
	lo, hi := rows[0].TradingDate, rows[0].TradingDate
	for _, r := range rows[1:] {
		if r.TradingDate < lo {
			lo = r.TradingDate
		}
		if r.TradingDate > hi {
			hi = r.TradingDate
		}
	}
	if first, err = util.ParseDate(lo); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if last, err = util.ParseDate(hi); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return first, last, true, nil
}

// ---------------------------------------------------------------------------
// SnapshotStore implementation
// ---------------------------------------------------------------------------

// SaveSnapshots writes each snapshot to its own day directory.
func (s *ParquetStore) SaveSnapshots(ctx context.Context, snaps []*domain.Snapshot) error {
	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if snap == nil {
			continue
		}
		date := util.FormatDate(snap.TradeDate)

		quotes := make([]QuoteRecord, len(snap.Quotes))
		for i, q := range snap.Quotes {
			quotes[i] = QuoteRecord{
				Code:     q.Code,
				PctChg:   q.PctChg.Ptr(),
				Open:     q.Open.Ptr(),
				High:     q.High.Ptr(),
				Low:      q.Low.Ptr(),
				Close:    q.Close.Ptr(),
				PreClose: q.PreClose.Ptr(),
				Amount:   q.Amount.Ptr(),
			}
		}
		limits := make([]LimitRecord, len(snap.Limits))
		for i, l := range snap.Limits {
			limits[i] = LimitRecord{
				Code:       l.Code,
				Name:       l.Name,
				Industry:   l.Industry,
				Tag:        string(l.Tag),
				LimitTimes: l.LimitTimes.Ptr(),
				PctChg:     l.PctChg.Ptr(),
				Close:      l.Close.Ptr(),
				Amount:     l.Amount.Ptr(),
				FdAmount:   l.FdAmount.Ptr(),
				Open:       l.Open.Ptr(),
				High:       l.High.Ptr(),
				Low:        l.Low.Ptr(),
				PreClose:   l.PreClose.Ptr(),
			}
		}

		quotesPath, limitsPath := s.snapshotPaths(snap.TradeDate)
		if err := writeParquetFile(quotesPath, quotes); err != nil {
			return fmt.Errorf("writing quotes for %s: %w", date, err)
		}
		if err := writeParquetFile(limitsPath, limits); err != nil {
			return fmt.Errorf("writing limits for %s: %w", date, err)
		}
	}
	return nil
}

// LoadSnapshot reads a stored day. It returns nil, nil when the day has no
// snapshot directory.
func (s *ParquetStore) LoadSnapshot(_ context.Context, date time.Time) (*domain.Snapshot, error) {
	quotesPath, limitsPath := s.snapshotPaths(date)
	if _, err := os.Stat(filepath.Dir(quotesPath)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	quotes, err := readParquetOptional[QuoteRecord](quotesPath)
	if err != nil {
		return nil, fmt.Errorf("reading quotes for %s: %w", util.FormatDate(date), err)
	}
	limits, err := readParquetOptional[LimitRecord](limitsPath)
	if err != nil {
		return nil, fmt.Errorf("reading limits for %s: %w", util.FormatDate(date), err)
	}

	snap := &domain.Snapshot{TradeDate: util.Truncate(date)}
	for _, q := range quotes {
		snap.Quotes = append(snap.Quotes, domain.QuoteRow{
			Code:     q.Code,
			PctChg:   null.FloatFromPtr(q.PctChg),
			Open:     null.FloatFromPtr(q.Open),
			High:     null.FloatFromPtr(q.High),
			Low:      null.FloatFromPtr(q.Low),
			Close:    null.FloatFromPtr(q.Close),
			PreClose: null.FloatFromPtr(q.PreClose),
			Amount:   null.FloatFromPtr(q.Amount),
		})
	}
	for _, l := range limits {
		snap.Limits = append(snap.Limits, domain.LimitMoveRow{
			Code:       l.Code,
			Name:       l.Name,
			Industry:   l.Industry,
			Tag:        domain.LimitTag(l.Tag),
			LimitTimes: null.IntFromPtr(l.LimitTimes),
			PctChg:     null.FloatFromPtr(l.PctChg),
			Close:      null.FloatFromPtr(l.Close),
			Amount:     null.FloatFromPtr(l.Amount),
			FdAmount:   null.FloatFromPtr(l.FdAmount),
			Open:       null.FloatFromPtr(l.Open),
			High:       null.FloatFromPtr(l.High),
			Low:        null.FloatFromPtr(l.Low),
			PreClose:   null.FloatFromPtr(l.PreClose),
		})
	}
	return snap, nil
}

// ---------------------------------------------------------------------------
// RunLog implementation
// ---------------------------------------------------------------------------

// LogRun appends run to the update log file.
func (s *ParquetStore) LogRun(_ context.Context, run Run) error {
	path := s.runLogPath()
	existing, err := readParquetOptional[RunRecord](path)
	if err != nil {
		return fmt.Errorf("reading update log: %w", err)
	}
	rec := RunRecord{
		Mode:      run.Mode,
		StartDate: formatOptionalDate(run.Start),
		EndDate:   formatOptionalDate(run.End),
		DaysCount: int64(run.Days),
		Status:    string(run.Status),
		Message:   run.Message,
		RunAt:     run.RunAt.UnixMilli(),
	}
	if err := writeParquetFile(path, append(existing, rec)); err != nil {
		return fmt.Errorf("writing update log: %w", err)
	}
	return nil
}

// LastRun returns the entry with the latest run time.
func (s *ParquetStore) LastRun(_ context.Context) (*Run, error) {
	records, err := readParquetOptional[RunRecord](s.runLogPath())
	if err != nil {
		return nil, fmt.Errorf("reading update log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	last := records[0]
	for _, r := range records[1:] {
		if r.RunAt >= last.RunAt {
			last = r
		}
	}
	run := &Run{
		Mode:    last.Mode,
		Days:    int(last.DaysCount),
		Status:  RunStatus(last.Status),
		Message: last.Message,
		RunAt:   time.UnixMilli(last.RunAt).UTC(),
	}
	if run.Start, err = parseOptionalDate(last.StartDate); err != nil {
		return nil, err
	}
	if run.End, err = parseOptionalDate(last.EndDate); err != nil {
		return nil, err
	}
	return run, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (s *ParquetStore) indicatorPath() string {
	return filepath.Join(s.DataDir, "cn", "emotion_cycle.parquet")
}

func (s *ParquetStore) runLogPath() string {
	return filepath.Join(s.DataDir, "cn", "update_log.parquet")
}

// snapshotPaths returns the quote and limit file paths for a day.
// Layout: <dataDir>/cn/snapshot/<YYYY-MM-DD>/{quotes,limits}.parquet
func (s *ParquetStore) snapshotPaths(date time.Time) (string, string) {
	dir := filepath.Join(s.DataDir, "cn", "snapshot", util.FormatDate(date))
	return filepath.Join(dir, "quotes.parquet"), filepath.Join(dir, "limits.parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

// readParquetOptional reads path, treating a missing file as no rows.
func readParquetOptional[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return parquet.ReadFile[T](path)
}

// mergeIndicatorRows deduplicates rows by trading date, preferring incoming
// rows over existing ones. Results are sorted ascending.
func mergeIndicatorRows(existing, incoming []IndicatorRow) []IndicatorRow {
	seen := make(map[string]IndicatorRow, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.TradingDate] = r
	}
	for _, r := range incoming {
		seen[r.TradingDate] = r
	}

	merged := make([]IndicatorRow, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].TradingDate < merged[j].TradingDate
	})
	return merged
}

func toIndicatorRow(r *domain.IndicatorRecord) IndicatorRow {
	return IndicatorRow{
		TradingDate:    util.FormatDate(r.TradeDate),
		UpCount:        int64(r.UpCount),
		DownCount:      int64(r.DownCount),
		Up5Count:       int64(r.Up5Count),
		Down5Count:     int64(r.Down5Count),
		LimitUpCount:   int64(r.LimitUpCount),
		LimitDownCount: int64(r.LimitDownCount),
		BreakCount:     int64(r.BreakCount),
		BreakRate:      r.BreakRate,
		FirstBoard:     int64(r.FirstBoard),
		SecondBoard:    int64(r.SecondBoard),
		ThirdBoard:     int64(r.ThirdBoard),
		AboveThird:     int64(r.AboveThird),
		MaxBoard:       int64(r.MaxBoard),
		FanpaoCount:    int64(r.FanpaoCount),
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

func fromIndicatorRow(r IndicatorRow) (domain.IndicatorRecord, error) {
	date, err := util.ParseDate(r.TradingDate)
	if err != nil {
		return domain.IndicatorRecord{}, err
	}
	return domain.IndicatorRecord{
		TradeDate:      date,
		UpCount:        int(r.UpCount),
		DownCount:      int(r.DownCount),
		Up5Count:       int(r.Up5Count),
		Down5Count:     int(r.Down5Count),
		LimitUpCount:   int(r.LimitUpCount),
		LimitDownCount: int(r.LimitDownCount),
		BreakCount:     int(r.BreakCount),
		BreakRate:      r.BreakRate,
		FirstBoard:     int(r.FirstBoard),
		SecondBoard:    int(r.SecondBoard),
		ThirdBoard:     int(r.ThirdBoard),
		AboveThird:     int(r.AboveThird),
		MaxBoard:       int(r.MaxBoard),
		FanpaoCount:    int(r.FanpaoCount),
		LimitAmount:    r.LimitAmount,
		SealAmount:     r.SealAmount,

		FirstRedRate:  null.FloatFromPtr(r.FirstRedRate),
		FirstPremium:  null.FloatFromPtr(r.FirstPremium),
		SecondRedRate: null.FloatFromPtr(r.SecondRedRate),
		SecondPremium: null.FloatFromPtr(r.SecondPremium),
		ThirdRedRate:  null.FloatFromPtr(r.ThirdRedRate),
		ThirdPremium:  null.FloatFromPtr(r.ThirdPremium),
		Advance1To2:   null.FloatFromPtr(r.Advance1To2),
		Advance2To3:   null.FloatFromPtr(r.Advance2To3),
		Advance3To4:   null.FloatFromPtr(r.Advance3To4),
		Advance3Plus:  null.FloatFromPtr(r.Advance3Plus),

		YesterdayFirstRedRate:     null.FloatFromPtr(r.YesterdayFirstRedRate),
		YesterdayFirstPremium:     null.FloatFromPtr(r.YesterdayFirstPremium),
		YesterdaySecondRedRate:    null.FloatFromPtr(r.YesterdaySecondRedRate),
		YesterdaySecondPremium:    null.FloatFromPtr(r.YesterdaySecondPremium),
		YesterdayThirdRedRate:     null.FloatFromPtr(r.YesterdayThirdRedRate),
		YesterdayThirdPremium:     null.FloatFromPtr(r.YesterdayThirdPremium),
		YesterdayThirdPlusRedRate: null.FloatFromPtr(r.YesterdayThirdPlusRedRate),
		YesterdayThirdPlusPremium: null.FloatFromPtr(r.YesterdayThirdPlusPremium),
	}, nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return util.FormatDate(t)
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return util.ParseDate(s)
}
