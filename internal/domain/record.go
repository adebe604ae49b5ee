package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// ColumnKind describes the semantic type of an indicator column.
type ColumnKind int

const (
	KindCount  ColumnKind = iota // integer count, always defined
	KindAmount                   // float, always defined
	KindRate                     // float, may be undefined
)

// ColumnTradeDate is the key column of every indicator row.
const ColumnTradeDate = "trading_date"

// IndicatorRecord is one fully computed row keyed by trading date. Rates and
// premiums are null when there was no data to compute them.
type IndicatorRecord struct {
	TradeDate time.Time

	UpCount    int
	DownCount  int
	Up5Count   int
	Down5Count int

	LimitUpCount   int
	LimitDownCount int
	BreakCount     int
	BreakRate      float64

	FirstBoard  int
	SecondBoard int
	ThirdBoard  int
	AboveThird  int
	MaxBoard    int

	FanpaoCount int
	LimitAmount float64 // 1e8 CNY
	SealAmount  float64 // 1e8 CNY

	// Same-day performance of today's limit-up tiers.
	FirstRedRate  null.Float
	FirstPremium  null.Float
	SecondRedRate null.Float
	SecondPremium null.Float
	ThirdRedRate  null.Float
	ThirdPremium  null.Float

	Advance1To2  null.Float
	Advance2To3  null.Float
	Advance3To4  null.Float
	Advance3Plus null.Float

	// Today's performance of yesterday's limit-up tiers.
	YesterdayFirstRedRate     null.Float
	YesterdayFirstPremium     null.Float
	YesterdaySecondRedRate    null.Float
	YesterdaySecondPremium    null.Float
	YesterdayThirdRedRate     null.Float
	YesterdayThirdPremium     null.Float
	YesterdayThirdPlusRedRate null.Float
	YesterdayThirdPlusPremium null.Float
}

// Column describes one indicator column of the record schema.
type Column struct {
	Name string
	Kind ColumnKind
}

// field binds a column to the storage inside a record.
type field struct {
	Column
	i *int
	f *float64
	n *null.Float
}

func (r *IndicatorRecord) fields() []field {
	return []field{
		{Column: Column{"up_count", KindCount}, i: &r.UpCount},
		{Column: Column{"down_count", KindCount}, i: &r.DownCount},
		{Column: Column{"up5_count", KindCount}, i: &r.Up5Count},
		{Column: Column{"down5_count", KindCount}, i: &r.Down5Count},
		{Column: Column{"limit_up_count", KindCount}, i: &r.LimitUpCount},
		{Column: Column{"limit_down_count", KindCount}, i: &r.LimitDownCount},
		{Column: Column{"break_count", KindCount}, i: &r.BreakCount},
		{Column: Column{"break_rate", KindAmount}, f: &r.BreakRate},
		{Column: Column{"first_board", KindCount}, i: &r.FirstBoard},
		{Column: Column{"second_board", KindCount}, i: &r.SecondBoard},
		{Column: Column{"third_board", KindCount}, i: &r.ThirdBoard},
		{Column: Column{"above_third", KindCount}, i: &r.AboveThird},
		{Column: Column{"max_board", KindCount}, i: &r.MaxBoard},
		{Column: Column{"fanpao_count", KindCount}, i: &r.FanpaoCount},
		{Column: Column{"limit_amount", KindAmount}, f: &r.LimitAmount},
		{Column: Column{"seal_amount", KindAmount}, f: &r.SealAmount},
		{Column: Column{"first_red_rate", KindRate}, n: &r.FirstRedRate},
		{Column: Column{"first_premium", KindRate}, n: &r.FirstPremium},
		{Column: Column{"second_red_rate", KindRate}, n: &r.SecondRedRate},
		{Column: Column{"second_premium", KindRate}, n: &r.SecondPremium},
		{Column: Column{"third_red_rate", KindRate}, n: &r.ThirdRedRate},
		{Column: Column{"third_premium", KindRate}, n: &r.ThirdPremium},
		{Column: Column{"advance_1to2", KindRate}, n: &r.Advance1To2},
		{Column: Column{"advance_2to3", KindRate}, n: &r.Advance2To3},
		{Column: Column{"advance_3to4", KindRate}, n: &r.Advance3To4},
		{Column: Column{"advance_3plus", KindRate}, n: &r.Advance3Plus},
		{Column: Column{"yesterday_first_red_rate", KindRate}, n: &r.YesterdayFirstRedRate},
		{Column: Column{"yesterday_first_premium", KindRate}, n: &r.YesterdayFirstPremium},
		{Column: Column{"yesterday_second_red_rate", KindRate}, n: &r.YesterdaySecondRedRate},
		{Column: Column{"yesterday_second_premium", KindRate}, n: &r.YesterdaySecondPremium},
		{Column: Column{"yesterday_third_red_rate", KindRate}, n: &r.YesterdayThirdRedRate},
		{Column: Column{"yesterday_third_premium", KindRate}, n: &r.YesterdayThirdPremium},
		{Column: Column{"yesterday_third_plus_red_rate", KindRate}, n: &r.YesterdayThirdPlusRedRate},
		{Column: Column{"yesterday_third_plus_premium", KindRate}, n: &r.YesterdayThirdPlusPremium},
	}
}

// IndicatorColumns returns the ordered value columns of the record schema,
// excluding the trading_date key.
func IndicatorColumns() []Column {
	var r IndicatorRecord
	fs := r.fields()
	cols := make([]Column, len(fs))
	for i, f := range fs {
		cols[i] = f.Column
	}
	return cols
}

// ColumnNames returns the full ordered schema, starting with trading_date.
func ColumnNames() []string {
	cols := IndicatorColumns()
	names := make([]string, 0, len(cols)+1)
	names = append(names, ColumnTradeDate)
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

// Value returns the named indicator as a nullable float. The second result
// is false for an unknown column.
func (r *IndicatorRecord) Value(name string) (null.Float, bool) {
	for _, f := range r.fields() {
		if f.Name != name {
			continue
		}
		switch {
		case f.i != nil:
			return null.FloatFrom(float64(*f.i)), true
		case f.f != nil:
			return null.FloatFrom(*f.f), true
		default:
			return *f.n, true
		}
	}
	return null.Float{}, false
}

// SetValue assigns the named indicator. Counts are truncated to int and an
// invalid value stored into a count or amount column becomes 0. It returns
// false for an unknown column.
func (r *IndicatorRecord) SetValue(name string, v null.Float) bool {
	for _, f := range r.fields() {
		if f.Name != name {
			continue
		}
		switch {
		case f.i != nil:
			*f.i = int(v.ValueOrZero())
		case f.f != nil:
			*f.f = v.ValueOrZero()
		default:
			*f.n = v
		}
		return true
	}
	return false
}

// Values returns every indicator value in schema order.
func (r *IndicatorRecord) Values() []null.Float {
	fs := r.fields()
	out := make([]null.Float, len(fs))
	for i, f := range fs {
		out[i], _ = r.Value(f.Name)
	}
	return out
}
