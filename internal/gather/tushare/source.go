package tushare

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"moodcycle/internal/domain"
	"moodcycle/internal/gather"
	"moodcycle/internal/util"
)

// Payload file names inside a day directory.
const (
	DailyFile    = "daily.json"
	LimitFile    = "limit_list_d.json"
	CalendarFile = "trade_cal.json"
)

// Compile-time interface check.
var _ gather.Source = (*DirSource)(nil)

// DirSource reads payload dumps laid out as
// <root>/<YYYYMMDD>/{daily,limit_list_d}.json with an optional
// <root>/trade_cal.json.
type DirSource struct {
	root string
	log  *slog.Logger
}

// NewDirSource creates a DirSource over <dataDir>/cn/raw.
func NewDirSource(dataDir string, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSource{
		root: filepath.Join(dataDir, "cn", "raw"),
		log:  logger.With("source", "tushare"),
	}
}

// Root returns the directory the source reads from.
func (s *DirSource) Root() string { return s.root }

// TradingDates returns the open dates within r. Without a calendar payload
// the day directories present are used.
func (s *DirSource) TradingDates(ctx context.Context, r gather.DateRange) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.calendar()
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, d := range all {
		if r.Contains(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DirSource) calendar() ([]time.Time, error) {
	body, err := os.ReadFile(filepath.Join(s.root, CalendarFile))
	switch {
	case err == nil:
		dates, err := DecodeCalendar(body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", CalendarFile, err)
		}
		return dates, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", CalendarFile, err)
	}

	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}
	var dates []time.Time
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != len(util.CompactLayout) {
			continue
		}
		d, err := util.ParseDate(e.Name())
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Snapshot loads one day's quotes and limit rows and joins quote prices into
// the limit rows. A missing payload file is a data gap and yields an empty
// sequence.
func (s *DirSource) Snapshot(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, util.CompactDate(date))
	snap := &domain.Snapshot{TradeDate: util.Truncate(date)}

	body, err := readOptional(filepath.Join(dir, DailyFile))
	if err != nil {
		return nil, err
	}
	if body != nil {
		if snap.Quotes, err = DecodeQuotes(body); err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", DailyFile, util.FormatDate(date), err)
		}
	}

	body, err = readOptional(filepath.Join(dir, LimitFile))
	if err != nil {
		return nil, err
	}
	if body != nil {
		limits, err := DecodeLimits(body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", LimitFile, util.FormatDate(date), err)
		}
		snap.Limits = domain.JoinQuotes(limits, snap.Quotes)
	}

	if snap.IsEmpty() {
		s.log.Warn("no data for trading day", "date", util.FormatDate(date))
	} else {
		s.log.Debug("loaded snapshot",
			"date", util.FormatDate(date),
			"quotes", len(snap.Quotes),
			"limits", len(snap.Limits),
		)
	}
	return snap, nil
}

// readOptional returns nil, nil when path does not exist.
func readOptional(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return body, nil
}
