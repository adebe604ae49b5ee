package indicator

import (
	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
)

// TierPerf is a cohort's red rate and premium, both in percent.
type TierPerf struct {
	RedRate null.Float
	Premium null.Float
}

// SameDaySummary is today's performance of today's limit-up tiers.
type SameDaySummary struct {
	First     TierPerf // board == 1
	Second    TierPerf // board == 2
	ThirdPlus TierPerf // board >= 3
}

// SameDay measures each limit-up tier on its own day. Red rate is the share
// of the tier that opened at or above the previous close; premium is the mean
// percent change.
func SameDay(limitUp []domain.LimitMoveRow) SameDaySummary {
	return SameDaySummary{
		First:     sameDayTier(limitUp, exactly(1)),
		Second:    sameDayTier(limitUp, exactly(2)),
		ThirdPlus: sameDayTier(limitUp, atLeast(3)),
	}
}

func sameDayTier(rows []domain.LimitMoveRow, match tierMatch) TierPerf {
	var (
		size, red int
		priced    bool
		pcts      []null.Float
	)
	for _, r := range rows {
		if b := r.Board(); b == 0 || !match(b) {
			continue
		}
		size++
		pcts = append(pcts, r.PctChg)
		open, pre := finite(r.Open), finite(r.PreClose)
		if open.Valid && pre.Valid {
			priced = true
			if open.Float64 >= pre.Float64 {
				red++
			}
		}
	}
	var p TierPerf
	if size == 0 {
		return p
	}
	if priced {
		p.RedRate = percent(red, size)
	}
	p.Premium = mean(pcts)
	return p
}
