// Package domain defines the core data types shared across the moodcycle
// system: per-day market snapshots and the indicator rows derived from them.
package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// LimitTag classifies a limit-move row.
type LimitTag string

const (
	LimitUp    LimitTag = "U"
	LimitDown  LimitTag = "D"
	BreakBoard LimitTag = "Z"
)

// Valid reports whether t is one of the known limit tags.
func (t LimitTag) Valid() bool {
	switch t {
	case LimitUp, LimitDown, BreakBoard:
		return true
	}
	return false
}

// QuoteRow is one stock's daily trade record. Fields the provider did not
// deliver are invalid (null), which is distinct from a real zero.
type QuoteRow struct {
	Code     string
	PctChg   null.Float
	Open     null.Float
	High     null.Float
	Low      null.Float
	Close    null.Float
	PreClose null.Float
	Amount   null.Float
}

// LimitMoveRow is one stock's limit event for a day. Open, High, Low and
// PreClose are normally joined in from the matching QuoteRow.
type LimitMoveRow struct {
	Code       string
	Name       string
	Industry   string
	Tag        LimitTag
	LimitTimes null.Int // consecutive-board count, limit-up only
	PctChg     null.Float
	Close      null.Float
	Amount     null.Float // traded amount, CNY
	FdAmount   null.Float // seal (outstanding order) amount, CNY
	Open       null.Float
	High       null.Float
	Low        null.Float
	PreClose   null.Float
}

// Board returns the consecutive-board count, or 0 when it is missing or not
// positive.
func (r LimitMoveRow) Board() int {
	if !r.LimitTimes.Valid || r.LimitTimes.Int64 <= 0 {
		return 0
	}
	return int(r.LimitTimes.Int64)
}

// Snapshot holds one trading day's raw records.
type Snapshot struct {
	TradeDate time.Time
	Quotes    []QuoteRow
	Limits    []LimitMoveRow
}

// IsEmpty reports whether the snapshot carries no records at all.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Quotes) == 0 && len(s.Limits) == 0)
}

// JoinQuotes returns a copy of limits with Open, High, Low and PreClose taken
// from the same code's quote when one exists, and PctChg filled from the
// quote when the limit row lacks it. Rows without a quote keep their own
// values. Joining twice yields the same rows.
func JoinQuotes(limits []LimitMoveRow, quotes []QuoteRow) []LimitMoveRow {
	if len(limits) == 0 {
		return nil
	}
	byCode := make(map[string]QuoteRow, len(quotes))
	for _, q := range quotes {
		byCode[q.Code] = q
	}
	out := make([]LimitMoveRow, len(limits))
	for i, r := range limits {
		if q, ok := byCode[r.Code]; ok {
			r.Open = pick(q.Open, r.Open)
			r.High = pick(q.High, r.High)
			r.Low = pick(q.Low, r.Low)
			r.PreClose = pick(q.PreClose, r.PreClose)
			r.PctChg = pick(r.PctChg, q.PctChg)
		}
		out[i] = r
	}
	return out
}

// pick returns a if it is valid, otherwise b.
func pick(a, b null.Float) null.Float {
	if a.Valid {
		return a
	}
	return b
}
