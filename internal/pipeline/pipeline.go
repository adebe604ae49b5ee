// Package pipeline drives batch updates of the emotion-cycle table: it
// fetches day snapshots, computes indicator rows for (today, yesterday)
// pairs and persists the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"moodcycle/internal/domain"
	"moodcycle/internal/gather"
	"moodcycle/internal/indicator"
	"moodcycle/internal/metrics"
	"moodcycle/internal/store"
	"moodcycle/internal/util"
)

// Update modes, recorded in the run log.
const (
	ModeInit        = "init"
	ModeRange       = "range"
	ModeIncremental = "incremental"
)

// ErrNoBaseline is returned by Incremental when no indicator row is stored.
var ErrNoBaseline = errors.New("no stored indicators to continue from; run init first")

// DayFailure records a trading day that could not be fetched or computed.
type DayFailure struct {
	Date time.Time
	Err  error
}

// Report summarises one update run.
type Report struct {
	Mode     string
	Start    time.Time
	End      time.Time
	Computed int
	Failed   []DayFailure
}

// Status derives the run-log status of the report.
func (r *Report) Status() store.RunStatus {
	switch {
	case len(r.Failed) == 0:
		return store.RunSuccess
	case r.Computed == 0:
		return store.RunFailed
	default:
		return store.RunPartial
	}
}

// Options tunes an Updater. Zero values get defaults.
type Options struct {
	Workers int
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Updater runs the init, range and incremental update modes.
type Updater struct {
	source  gather.Source
	snaps   store.SnapshotStore
	backend store.Backend
	metrics *metrics.Metrics
	log     *slog.Logger
	workers int
	now     func() time.Time
	compute func(today, yesterday *domain.Snapshot) domain.IndicatorRecord
}

// New creates an Updater reading from source, keeping raw snapshots in snaps
// and writing indicators and the run log to backend.
func New(source gather.Source, snaps store.SnapshotStore, backend store.Backend, opts Options) *Updater {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Updater{
		source:  source,
		snaps:   snaps,
		backend: backend,
		metrics: opts.Metrics,
		log:     opts.Logger,
		workers: opts.Workers,
		now:     opts.Now,
		compute: indicator.Compute,
	}
}

func (u *Updater) today() time.Time {
	return util.Truncate(u.now().In(util.ShanghaiLocation()))
}

// Init computes every trading day from start to today. The first day has no
// yesterday.
func (u *Updater) Init(ctx context.Context, start time.Time) (*Report, error) {
	return u.run(ctx, ModeInit, util.Truncate(start), u.today(), nil)
}

// Range computes every trading day in [start, end]. The first day's
// yesterday is the stored snapshot of the previous trading day, when there is
// one.
func (u *Updater) Range(ctx context.Context, start, end time.Time) (*Report, error) {
	start, end = util.Truncate(start), util.Truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", util.FormatDate(end), util.FormatDate(start))
	}
	prev, err := u.previousSnapshot(ctx, start)
	if err != nil {
		u.logRun(ctx, &Report{Mode: ModeRange, Start: start, End: end}, store.RunFailed, err.Error())
		return nil, err
	}
	return u.run(ctx, ModeRange, start, end, prev)
}

// lookback bounds the search for the trading day before a range start.
const lookback = 31

// previousSnapshot returns the stored snapshot of the last trading day before
// date, or nil when that day is unknown or was never stored.
func (u *Updater) previousSnapshot(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	dates, err := u.source.TradingDates(ctx, gather.DateRange{
		Start: date.AddDate(0, 0, -lookback),
		End:   date.AddDate(0, 0, -1),
	})
	if err != nil {
		return nil, fmt.Errorf("listing trading dates before %s: %w", util.FormatDate(date), err)
	}
	if len(dates) == 0 {
		return nil, nil
	}
	prevDate := dates[len(dates)-1]
	snap, err := u.snaps.LoadSnapshot(ctx, prevDate)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for %s: %w", util.FormatDate(prevDate), err)
	}
	return snap, nil
}

// Incremental computes the trading days after the latest stored row up to
// today. The first day's yesterday is the stored snapshot of that row's date.
func (u *Updater) Incremental(ctx context.Context) (*Report, error) {
	_, last, ok, err := u.backend.DateBounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored date bounds: %w", err)
	}
	if !ok {
		return nil, ErrNoBaseline
	}

	start := util.Truncate(last).AddDate(0, 0, 1)
	end := u.today()
	if start.After(end) {
		u.log.Info("indicators already up to date", "last", util.FormatDate(last))
		rep := &Report{Mode: ModeIncremental, Start: start, End: end}
		return rep, u.finish(ctx, rep, 0)
	}

	prev, err := u.snaps.LoadSnapshot(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for %s: %w", util.FormatDate(last), err)
	}
	if prev == nil {
		u.log.Warn("no stored snapshot for last computed day; first day has no yesterday",
			"date", util.FormatDate(last))
	}
	return u.run(ctx, ModeIncremental, start, end, prev)
}

// pair is one day to compute. A nil today marks a failed fetch.
type pair struct {
	date      time.Time
	today     *domain.Snapshot
	yesterday *domain.Snapshot
	fetchErr  error
}

func (u *Updater) run(ctx context.Context, mode string, start, end time.Time, prev *domain.Snapshot) (*Report, error) {
	rep := &Report{Mode: mode, Start: start, End: end}
	u.log.Info("starting update",
		"mode", mode,
		"start", util.FormatDate(start),
		"end", util.FormatDate(end),
	)

	dates, err := u.source.TradingDates(ctx, gather.DateRange{Start: start, End: end})
	if err != nil {
		err = fmt.Errorf("listing trading dates: %w", err)
		u.logRun(ctx, rep, store.RunFailed, err.Error())
		return nil, err
	}
	if len(dates) == 0 {
		u.log.Info("no trading days in range")
		return rep, u.finish(ctx, rep, 0)
	}

	pairs, err := u.fetch(ctx, dates, prev)
	if err != nil {
		return nil, err
	}

	var fetched []*domain.Snapshot
	for _, p := range pairs {
		if p.today != nil {
			fetched = append(fetched, p.today)
		}
	}
	if err := u.snaps.SaveSnapshots(ctx, fetched); err != nil {
		err = fmt.Errorf("saving snapshots: %w", err)
		u.logRun(ctx, rep, store.RunFailed, err.Error())
		return nil, err
	}

	records, failed := u.computeAll(pairs)
	rep.Failed = failed

	if len(records) > 0 {
		if err := u.backend.UpsertIndicators(ctx, records); err != nil {
			err = fmt.Errorf("writing indicators: %w", err)
			u.logRun(ctx, rep, store.RunFailed, err.Error())
			return nil, err
		}
	}
	rep.Computed = len(records)

	return rep, u.finish(ctx, rep, len(dates))
}

// fetch loads the snapshots of dates in order. A day whose fetch failed is
// recorded and the following day gets no yesterday.
func (u *Updater) fetch(ctx context.Context, dates []time.Time, prev *domain.Snapshot) ([]pair, error) {
	pairs := make([]pair, 0, len(dates))
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := u.source.Snapshot(ctx, d)
		if err != nil {
			u.log.Error("fetching snapshot failed", "date", util.FormatDate(d), "error", err)
			pairs = append(pairs, pair{date: d, fetchErr: fmt.Errorf("fetching snapshot: %w", err)})
			prev = nil
			continue
		}
		if snap == nil {
			snap = &domain.Snapshot{}
		}
		snap.TradeDate = util.Truncate(d)
		pairs = append(pairs, pair{date: d, today: snap, yesterday: prev})
		prev = snap
	}
	return pairs, nil
}

// computeAll computes pairs concurrently, bounded by the worker count, and
// returns the successful records in date order together with the failures.
func (u *Updater) computeAll(pairs []pair) ([]domain.IndicatorRecord, []DayFailure) {
	type result struct {
		rec domain.IndicatorRecord
		err error
	}
	results := make([]result, len(pairs))

	var g errgroup.Group
	g.SetLimit(u.workers)
	for i, p := range pairs {
		if p.fetchErr != nil {
			results[i].err = p.fetchErr
			if u.metrics != nil {
				u.metrics.FetchFailed()
			}
			continue
		}
		i, p := i, p
		g.Go(func() error {
			began := time.Now()
			rec, err := u.computeDay(p)
			results[i] = result{rec: rec, err: err}
			if u.metrics != nil {
				u.metrics.ObserveDay(err != nil, time.Since(began))
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		records []domain.IndicatorRecord
		failed  []DayFailure
	)
	for i, r := range results {
		if r.err != nil {
			u.log.Error("computing day failed", "date", util.FormatDate(pairs[i].date), "error", r.err)
			failed = append(failed, DayFailure{Date: pairs[i].date, Err: r.err})
			continue
		}
		records = append(records, r.rec)
	}
	return records, failed
}

func (u *Updater) computeDay(p pair) (rec domain.IndicatorRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("computing %s: panic: %v", util.FormatDate(p.date), r)
		}
	}()
	rec = u.compute(p.today, p.yesterday)
	rec.TradeDate = util.Truncate(p.date)
	return rec, nil
}

// finish logs the run and records metrics.
func (u *Updater) finish(ctx context.Context, rep *Report, days int) error {
	status := rep.Status()
	msg := fmt.Sprintf("computed %d of %d trading days", rep.Computed, days)
	if len(rep.Failed) > 0 {
		dates := make([]string, len(rep.Failed))
		for i, f := range rep.Failed {
			dates[i] = util.FormatDate(f.Date)
		}
		msg += "; failed: " + strings.Join(dates, ", ")
	}
	if err := u.logRun(ctx, rep, status, msg); err != nil {
		return err
	}
	if u.metrics != nil {
		u.metrics.FinishRun(u.now(), rep.Computed)
	}
	u.log.Info("update finished",
		"mode", rep.Mode,
		"status", string(status),
		"computed", rep.Computed,
		"failed", len(rep.Failed),
	)
	return nil
}

func (u *Updater) logRun(ctx context.Context, rep *Report, status store.RunStatus, msg string) error {
	err := u.backend.LogRun(ctx, store.Run{
		Mode:    rep.Mode,
		Start:   rep.Start,
		End:     rep.End,
		Days:    rep.Computed,
		Status:  status,
		Message: msg,
		RunAt:   u.now(),
	})
	if err != nil {
		u.log.Error("writing run log failed", "error", err)
		return fmt.Errorf("writing run log: %w", err)
	}
	return nil
}
