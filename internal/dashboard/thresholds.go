package dashboard

import "github.com/guregu/null/v5"

// Grade classifies an indicator value for colouring.
type Grade string

const (
	GradeGood    Grade = "good"
	GradeBad     Grade = "bad"
	GradeNeutral Grade = "neutral"
	GradeNone    Grade = "none" // undefined value or ungraded column
)

// Threshold bounds one column. Normally values at or above Good are good and
// at or below Bad are bad; Reverse flips both comparisons.
type Threshold struct {
	Good    float64 `yaml:"good" json:"good"`
	Bad     float64 `yaml:"bad" json:"bad"`
	Reverse bool    `yaml:"reverse" json:"reverse,omitempty"`
}

// Thresholds maps column names to their bounds.
type Thresholds map[string]Threshold

// DefaultThresholds returns the stock colour bounds.
func DefaultThresholds() Thresholds {
	advance := Threshold{Good: 40, Bad: 20}
	red := Threshold{Good: 60, Bad: 40}
	premium := Threshold{Good: 3, Bad: -1}
	return Thresholds{
		"advance_1to2":    advance,
		"advance_2to3":    advance,
		"advance_3to4":    advance,
		"advance_3plus":   {Good: 35, Bad: 15},
		"break_rate":      {Good: 20, Bad: 40, Reverse: true},
		"first_red_rate":  red,
		"second_red_rate": red,
		"third_red_rate":  red,
		"first_premium":   premium,
		"second_premium":  premium,
		"third_premium":   premium,

		"yesterday_first_red_rate":      red,
		"yesterday_second_red_rate":     red,
		"yesterday_third_red_rate":      red,
		"yesterday_third_plus_red_rate": red,
		"yesterday_first_premium":       premium,
		"yesterday_second_premium":      premium,
		"yesterday_third_premium":       premium,
		"yesterday_third_plus_premium":  premium,
	}
}

// Merge returns a copy of t with the entries of override replacing its own.
func (t Thresholds) Merge(override Thresholds) Thresholds {
	out := make(Thresholds, len(t)+len(override))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Grade classifies v for column col.
func (t Thresholds) Grade(col string, v null.Float) Grade {
	th, ok := t[col]
	if !ok || !v.Valid {
		return GradeNone
	}
	x := v.Float64
	if th.Reverse {
		switch {
		case x <= th.Good:
			return GradeGood
		case x >= th.Bad:
			return GradeBad
		}
		return GradeNeutral
	}
	switch {
	case x >= th.Good:
		return GradeGood
	case x <= th.Bad:
		return GradeBad
	}
	return GradeNeutral
}
