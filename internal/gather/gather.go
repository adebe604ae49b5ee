// Package gather defines where trading-day snapshots come from.
package gather

import (
	"context"
	"time"

	"moodcycle/internal/domain"
)

// Source supplies raw per-day market snapshots.
type Source interface {
	// TradingDates returns the trading dates within r, ascending.
	TradingDates(ctx context.Context, r DateRange) ([]time.Time, error)
	// Snapshot returns the raw records of one trading day. A day with no
	// data yields an empty snapshot, not an error.
	Snapshot(ctx context.Context, date time.Time) (*domain.Snapshot, error)
}

// DateRange represents an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range. A zero bound is open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
