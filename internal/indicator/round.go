// Package indicator derives the daily market-sentiment indicators from one
// trading day's snapshot and, optionally, the preceding day's snapshot.
//
// Every calculator is a pure function over indexed row sets. Undefined values
// are carried as invalid null.Float, never as NaN or zero.
package indicator

import (
	"math"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"
)

// finite returns v, or undefined when v is NaN or infinite.
func finite(v null.Float) null.Float {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return null.Float{}
	}
	return v
}

// round2 rounds v to two decimal places, half away from zero. Non-finite
// values are returned unchanged.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// percent returns round2(100 * num / den), or undefined when den is 0.
func percent(num, den int) null.Float {
	if den == 0 {
		return null.Float{}
	}
	r := decimal.NewFromInt(int64(num)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(den))).
		Round(2)
	return null.FloatFrom(r.InexactFloat64())
}

// mean averages the valid finite values, rounded to two decimals. It is
// undefined when there are none.
func mean(vals []null.Float) null.Float {
	sum := decimal.Zero
	n := 0
	for _, v := range vals {
		if v = finite(v); !v.Valid {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v.Float64))
		n++
	}
	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64())
}

// tierMatch selects rows by consecutive-board count.
type tierMatch func(board int) bool

func exactly(n int) tierMatch { return func(b int) bool { return b == n } }
func atLeast(n int) tierMatch { return func(b int) bool { return b >= n } }
