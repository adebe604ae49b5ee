package indicator

import (
	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
)

// PromotionSummary holds board-advancement rates in percent.
type PromotionSummary struct {
	OneToTwo    null.Float // yesterday board 1
	TwoToThree  null.Float // yesterday board 2
	ThreeToFour null.Float // yesterday board 3
	ThreePlus   null.Float // yesterday board >= 4, stays up
}

// Promotion measures the share of each of yesterday's board cohorts that is
// limit-up again today. The denominator only counts cohort members that
// traded today; when today has no quotes at all the full cohort is used.
// An empty today yields undefined rates.
func Promotion(yesterdayLimitUp, todayLimitUp []domain.LimitMoveRow, todayQuotes []domain.QuoteRow, todayEmpty bool) PromotionSummary {
	if todayEmpty {
		return PromotionSummary{}
	}

	var traded map[string]struct{}
	if len(todayQuotes) > 0 {
		traded = make(map[string]struct{}, len(todayQuotes))
		for _, q := range todayQuotes {
			traded[q.Code] = struct{}{}
		}
	}
	up := make(map[string]struct{}, len(todayLimitUp))
	for _, r := range todayLimitUp {
		up[r.Code] = struct{}{}
	}

	return PromotionSummary{
		OneToTwo:    promotionTier(yesterdayLimitUp, traded, up, exactly(1)),
		TwoToThree:  promotionTier(yesterdayLimitUp, traded, up, exactly(2)),
		ThreeToFour: promotionTier(yesterdayLimitUp, traded, up, exactly(3)),
		ThreePlus:   promotionTier(yesterdayLimitUp, traded, up, atLeast(4)),
	}
}

// promotionTier computes one cohort's rate. A nil traded set means every
// cohort member is eligible.
func promotionTier(cohort []domain.LimitMoveRow, traded, up map[string]struct{}, match tierMatch) null.Float {
	seen := make(map[string]struct{})
	var eligible, promoted int
	for _, r := range cohort {
		if b := r.Board(); b == 0 || !match(b) {
			continue
		}
		if _, dup := seen[r.Code]; dup {
			continue
		}
		seen[r.Code] = struct{}{}
		if traded != nil {
			if _, ok := traded[r.Code]; !ok {
				continue
			}
		}
		eligible++
		if _, ok := up[r.Code]; ok {
			promoted++
		}
	}
	return percent(promoted, eligible)
}
