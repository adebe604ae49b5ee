package indicator

import (
	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
)

// NextDaySummary is today's performance of yesterday's limit-up tiers.
type NextDaySummary struct {
	First     TierPerf // board == 1
	Second    TierPerf // board == 2
	Third     TierPerf // board == 3
	ThirdPlus TierPerf // board >= 3
}

// NextDay joins yesterday's limit-up cohort to today's quotes by code. Red
// rate is the share of matched codes with pct_chg > 0; premium is their mean
// pct_chg. Codes without a quote or a finite percent change today are not
// matched, and a code listed twice in the cohort counts once.
func NextDay(yesterdayLimitUp []domain.LimitMoveRow, todayQuotes []domain.QuoteRow) NextDaySummary {
	pct := make(map[string]float64, len(todayQuotes))
	for _, q := range todayQuotes {
		if v := finite(q.PctChg); v.Valid {
			pct[q.Code] = v.Float64
		}
	}
	return NextDaySummary{
		First:     nextDayTier(yesterdayLimitUp, pct, exactly(1)),
		Second:    nextDayTier(yesterdayLimitUp, pct, exactly(2)),
		Third:     nextDayTier(yesterdayLimitUp, pct, exactly(3)),
		ThirdPlus: nextDayTier(yesterdayLimitUp, pct, atLeast(3)),
	}
}

func nextDayTier(cohort []domain.LimitMoveRow, pct map[string]float64, match tierMatch) TierPerf {
	var (
		red     int
		matched []null.Float
	)
	seen := make(map[string]struct{})
	for _, r := range cohort {
		if b := r.Board(); b == 0 || !match(b) {
			continue
		}
		if _, dup := seen[r.Code]; dup {
			continue
		}
		seen[r.Code] = struct{}{}
		p, ok := pct[r.Code]
		if !ok {
			continue
		}
		matched = append(matched, null.FloatFrom(p))
		if p > 0 {
			red++
		}
	}
	if len(matched) == 0 {
		return TierPerf{}
	}
	return TierPerf{
		RedRate: percent(red, len(matched)),
		Premium: mean(matched),
	}
}
