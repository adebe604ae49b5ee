// Package store defines storage interfaces for persisting and retrieving
// indicator rows, raw day snapshots and the update run log.
package store

import (
	"context"
	"sort"
	"time"

	"moodcycle/internal/domain"
)

// IndicatorStore persists and retrieves indicator rows keyed by trading date.
type IndicatorStore interface {
	// UpsertIndicators writes records, replacing any stored row with the same
	// trading date.
	UpsertIndicators(ctx context.Context, records []domain.IndicatorRecord) error

	// LoadIndicators returns the rows within q, newest first.
	LoadIndicators(ctx context.Context, q Query) ([]domain.IndicatorRecord, error)

	// DateBounds returns the earliest and latest stored trading dates. ok is
	// false when nothing is stored.
	DateBounds(ctx context.Context) (first, last time.Time, ok bool, err error)
}

// SnapshotStore persists raw day snapshots.
type SnapshotStore interface {
	// SaveSnapshots stores each snapshot, replacing the stored day.
	SaveSnapshots(ctx context.Context, snaps []*domain.Snapshot) error

	// LoadSnapshot returns the stored snapshot for date, or nil when the day
	// was never stored.
	LoadSnapshot(ctx context.Context, date time.Time) (*domain.Snapshot, error)
}

// RunLog records update runs.
type RunLog interface {
	// LogRun appends a run entry.
	LogRun(ctx context.Context, run Run) error

	// LastRun returns the most recent entry, or nil when none exists.
	LastRun(ctx context.Context) (*Run, error)
}

// Backend is an indicator store that also keeps the run log.
type Backend interface {
	IndicatorStore
	RunLog
	Close() error
}

// Query selects an inclusive trading-date range. A zero bound is open.
type Query struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date falls within q.
func (q Query) Contains(date time.Time) bool {
	if !q.Start.IsZero() && date.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && date.After(q.End) {
		return false
	}
	return true
}

// RunStatus is the outcome of an update run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// Run is one update-log entry.
type Run struct {
	Mode    string
	Start   time.Time
	End     time.Time
	Days    int
	Status  RunStatus
	Message string
	RunAt   time.Time
}

// SortDescending orders records newest first.
func SortDescending(records []domain.IndicatorRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TradeDate.After(records[j].TradeDate)
	})
}
