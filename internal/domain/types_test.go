package domain

import (
	"encoding/json"
	"testing"

	"github.com/guregu/null/v5"
)

func TestLimitTagValid(t *testing.T) {
	tests := []struct {
		tag  LimitTag
		want bool
	}{
		{LimitUp, true},
		{LimitDown, true},
		{BreakBoard, true},
		{"", false},
		{"X", false},
		{"u", false},
	}
	for _, tt := range tests {
		if got := tt.tag.Valid(); got != tt.want {
			t.Errorf("LimitTag(%q).Valid() = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestLimitMoveRowBoard(t *testing.T) {
	tests := []struct {
		name string
		lt   null.Int
		want int
	}{
		{"missing", null.Int{}, 0},
		{"zero", null.IntFrom(0), 0},
		{"negative", null.IntFrom(-2), 0},
		{"three", null.IntFrom(3), 3},
	}
	for _, tt := range tests {
		r := LimitMoveRow{LimitTimes: tt.lt}
		if got := r.Board(); got != tt.want {
			t.Errorf("%s: Board() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSnapshotIsEmpty(t *testing.T) {
	var nilSnap *Snapshot
	if !nilSnap.IsEmpty() {
		t.Error("nil snapshot should be empty")
	}
	if !(&Snapshot{}).IsEmpty() {
		t.Error("zero snapshot should be empty")
	}
	s := &Snapshot{Quotes: []QuoteRow{{Code: "A"}}}
	if s.IsEmpty() {
		t.Error("snapshot with quotes should not be empty")
	}
	s = &Snapshot{Limits: []LimitMoveRow{{Code: "A", Tag: LimitUp}}}
	if s.IsEmpty() {
		t.Error("snapshot with limits should not be empty")
	}
}

func TestColumnNames(t *testing.T) {
	names := ColumnNames()
	if len(names) != 35 {
		t.Fatalf("len(ColumnNames()) = %d, want 35", len(names))
	}
	if names[0] != ColumnTradeDate {
		t.Errorf("names[0] = %q, want %q", names[0], ColumnTradeDate)
	}
	if names[26] != "advance_3plus" {
		t.Errorf("names[26] = %q, want %q", names[26], "advance_3plus")
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate column %q", n)
		}
		seen[n] = true
	}
}

func TestRecordValueAndSetValue(t *testing.T) {
	var r IndicatorRecord
	r.UpCount = 12
	r.BreakRate = 33.33
	r.FirstPremium = null.FloatFrom(4.5)

	if v, ok := r.Value("up_count"); !ok || !v.Valid || v.Float64 != 12 {
		t.Errorf("Value(up_count) = %v, %v; want 12, true", v, ok)
	}
	if v, ok := r.Value("break_rate"); !ok || v.Float64 != 33.33 {
		t.Errorf("Value(break_rate) = %v, %v; want 33.33, true", v, ok)
	}
	if v, ok := r.Value("first_premium"); !ok || v.Float64 != 4.5 {
		t.Errorf("Value(first_premium) = %v, %v; want 4.5, true", v, ok)
	}
	if v, ok := r.Value("second_premium"); !ok || v.Valid {
		t.Errorf("Value(second_premium) = %v, %v; want undefined, true", v, ok)
	}
	if _, ok := r.Value("nope"); ok {
		t.Error("Value(nope) should report unknown column")
	}

	if !r.SetValue("max_board", null.FloatFrom(5)) || r.MaxBoard != 5 {
		t.Errorf("SetValue(max_board) -> MaxBoard = %d, want 5", r.MaxBoard)
	}
	if !r.SetValue("first_premium", null.Float{}) || r.FirstPremium.Valid {
		t.Error("SetValue(first_premium, undefined) should clear the value")
	}
	if r.SetValue("nope", null.FloatFrom(1)) {
		t.Error("SetValue(nope) should report unknown column")
	}
}

func TestRecordValuesUndefinedJSON(t *testing.T) {
	var r IndicatorRecord
	r.FirstRedRate = null.FloatFrom(0)

	vals := r.Values()
	if len(vals) != len(IndicatorColumns()) {
		t.Fatalf("len(Values()) = %d, want %d", len(vals), len(IndicatorColumns()))
	}
	got, err := json.Marshal([]null.Float{r.FirstRedRate, r.SecondRedRate})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(got) != "[0,null]" {
		t.Errorf("Marshal = %s, want [0,null]", got)
	}
}

func TestJoinQuotes(t *testing.T) {
	limits := []LimitMoveRow{
		{Code: "A", Tag: LimitUp, Low: null.FloatFrom(1), PctChg: null.FloatFrom(10)},
		{Code: "B", Tag: LimitUp, Low: null.FloatFrom(2)},
		{Code: "C", Tag: LimitDown},
	}
	quotes := []QuoteRow{
		{Code: "A", Low: null.FloatFrom(9.8), Open: null.FloatFrom(10), PreClose: null.FloatFrom(10), PctChg: null.FloatFrom(9.9)},
		{Code: "B", PctChg: null.FloatFrom(-3)},
	}

	got := JoinQuotes(limits, quotes)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Low.Float64 != 9.8 || got[0].Open.Float64 != 10 {
		t.Errorf("A low/open = %v/%v, want 9.8/10", got[0].Low, got[0].Open)
	}
	if got[0].PctChg.Float64 != 10 {
		t.Errorf("A pct_chg = %v, want limit row value 10", got[0].PctChg)
	}
	if got[1].Low.Float64 != 2 {
		t.Errorf("B low = %v, want own value 2 when quote lacks it", got[1].Low)
	}
	if got[1].PctChg.Float64 != -3 {
		t.Errorf("B pct_chg = %v, want quote value -3", got[1].PctChg)
	}
	if got[2].Open.Valid {
		t.Errorf("C open = %v, want undefined", got[2].Open)
	}
	if limits[0].Low.Float64 != 1 {
		t.Error("JoinQuotes must not modify its input")
	}

	again := JoinQuotes(got, quotes)
	for i := range got {
		if again[i] != got[i] {
			t.Errorf("row %d changed on second join: %+v != %+v", i, again[i], got[i])
		}
	}
}
