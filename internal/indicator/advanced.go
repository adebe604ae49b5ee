package indicator

import (
	"github.com/shopspring/decimal"

	"moodcycle/internal/domain"
)

// yuanPerYi converts CNY to units of 1e8 CNY.
var yuanPerYi = decimal.NewFromInt(100_000_000)

// AdvancedSummary holds the reversal-fill count and money aggregates.
type AdvancedSummary struct {
	Fanpao      int
	LimitAmount float64 // 1e8 CNY
	SealAmount  float64 // 1e8 CNY
}

// Advanced computes metrics over today's limit-up rows. A row is a reversal
// fill when its low is strictly below the same code's low in yesterday's
// quotes; codes missing on either side do not count. Non-finite amounts are
// left out of the sums.
func Advanced(limitUp []domain.LimitMoveRow, yesterdayQuotes []domain.QuoteRow) AdvancedSummary {
	var s AdvancedSummary
	if len(limitUp) == 0 {
		return s
	}

	prevLow := make(map[string]float64, len(yesterdayQuotes))
	for _, q := range yesterdayQuotes {
		if low := finite(q.Low); low.Valid {
			prevLow[q.Code] = low.Float64
		}
	}

	amount, seal := decimal.Zero, decimal.Zero
	for _, r := range limitUp {
		if low, ok := prevLow[r.Code]; ok && r.Low.Valid && r.Low.Float64 < low {
			s.Fanpao++
		}
		if v := finite(r.Amount); v.Valid {
			amount = amount.Add(decimal.NewFromFloat(v.Float64))
		}
		if v := finite(r.FdAmount); v.Valid {
			seal = seal.Add(decimal.NewFromFloat(v.Float64))
		}
	}
	s.LimitAmount = amount.Div(yuanPerYi).Round(2).InexactFloat64()
	s.SealAmount = seal.Div(yuanPerYi).Round(2).InexactFloat64()
	return s
}
