package indicator

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func sampleDays() (today, yesterday *domain.Snapshot) {
	yesterday = &domain.Snapshot{
		TradeDate: day("2026-03-02"),
		Quotes: []domain.QuoteRow{
			{Code: "X", PctChg: f(10), Low: f(9.9)},
			{Code: "Y", PctChg: f(10), Low: f(5)},
			{Code: "Z", PctChg: f(-3), Low: f(20)},
		},
		Limits: []domain.LimitMoveRow{
			{Code: "Y", Tag: domain.LimitUp, LimitTimes: null.IntFrom(1)},
			{Code: "W", Tag: domain.LimitUp, LimitTimes: null.IntFrom(2)},
		},
	}
	today = &domain.Snapshot{
		TradeDate: day("2026-03-03"),
		Quotes: []domain.QuoteRow{
			{Code: "X", PctChg: f(10), Low: f(9.8), Open: f(10), PreClose: f(10)},
			{Code: "Y", PctChg: f(10), Low: f(5.5), Open: f(5.6), PreClose: f(5.5)},
			{Code: "Z", PctChg: f(-6)},
			{Code: "V", PctChg: f(0)},
		},
		Limits: []domain.LimitMoveRow{
			{Code: "X", Tag: domain.LimitUp, LimitTimes: null.IntFrom(1), PctChg: f(10), Amount: f(200_000_000), FdAmount: f(12_345_678)},
			{Code: "Y", Tag: domain.LimitUp, LimitTimes: null.IntFrom(2), PctChg: f(10)},
			{Code: "Q", Tag: domain.BreakBoard},
			{Code: "Z", Tag: domain.LimitDown},
		},
	}
	return today, yesterday
}

func TestComputeReversalScenario(t *testing.T) {
	today := &domain.Snapshot{
		TradeDate: day("2026-03-03"),
		Quotes:    []domain.QuoteRow{{Code: "X", Low: f(9.8), PctChg: f(10)}},
		Limits: []domain.LimitMoveRow{{
			Code: "X", Tag: domain.LimitUp, LimitTimes: null.IntFrom(1),
			Open: f(10), PreClose: f(10), PctChg: f(10),
		}},
	}
	yesterday := &domain.Snapshot{
		TradeDate: day("2026-03-02"),
		Quotes:    []domain.QuoteRow{{Code: "X", Low: f(9.9)}},
	}

	rec := Compute(today, yesterday)
	if rec.FanpaoCount != 1 {
		t.Errorf("FanpaoCount = %d, want 1", rec.FanpaoCount)
	}
	wantFloat(t, "first_red_rate", rec.FirstRedRate, 100)
	wantFloat(t, "first_premium", rec.FirstPremium, 10)
	wantUndefined(t, "advance_1to2", rec.Advance1To2)
	wantUndefined(t, "yesterday_first_red_rate", rec.YesterdayFirstRedRate)
}

func TestComputeFullDay(t *testing.T) {
	today, yesterday := sampleDays()
	rec := Compute(today, yesterday)

	if !rec.TradeDate.Equal(today.TradeDate) {
		t.Errorf("TradeDate = %v, want %v", rec.TradeDate, today.TradeDate)
	}
	if rec.UpCount != 2 || rec.DownCount != 1 || rec.Up5Count != 2 || rec.Down5Count != 1 {
		t.Errorf("breadth = %d/%d/%d/%d, want 2/1/2/1", rec.UpCount, rec.DownCount, rec.Up5Count, rec.Down5Count)
	}
	if rec.LimitUpCount != 2 || rec.LimitDownCount != 1 || rec.BreakCount != 1 {
		t.Errorf("limits = %d/%d/%d, want 2/1/1", rec.LimitUpCount, rec.LimitDownCount, rec.BreakCount)
	}
	if rec.BreakRate != 33.33 {
		t.Errorf("BreakRate = %v, want 33.33", rec.BreakRate)
	}
	if rec.FirstBoard != 1 || rec.SecondBoard != 1 || rec.MaxBoard != 2 {
		t.Errorf("boards = %d/%d max %d, want 1/1 max 2", rec.FirstBoard, rec.SecondBoard, rec.MaxBoard)
	}
	if rec.FanpaoCount != 1 {
		t.Errorf("FanpaoCount = %d, want 1", rec.FanpaoCount)
	}
	if rec.LimitAmount != 2 || rec.SealAmount != 0.12 {
		t.Errorf("amounts = %v/%v, want 2/0.12", rec.LimitAmount, rec.SealAmount)
	}

	wantFloat(t, "second_red_rate", rec.SecondRedRate, 100)
	wantUndefined(t, "third_red_rate", rec.ThirdRedRate)

	// Y was yesterday's only first board and is limit-up again.
	wantFloat(t, "advance_1to2", rec.Advance1To2, 100)
	// W was a second board and did not trade today.
	wantUndefined(t, "advance_2to3", rec.Advance2To3)
	wantFloat(t, "yesterday_first_red_rate", rec.YesterdayFirstRedRate, 100)
	wantFloat(t, "yesterday_first_premium", rec.YesterdayFirstPremium, 10)
	wantUndefined(t, "yesterday_second_red_rate", rec.YesterdaySecondRedRate)
}

func TestComputeIdempotent(t *testing.T) {
	today, yesterday := sampleDays()
	a := Compute(today, yesterday)
	b := Compute(today, yesterday)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Compute not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestComputeEmptyDay(t *testing.T) {
	_, yesterday := sampleDays()
	for _, y := range []*domain.Snapshot{nil, yesterday} {
		rec := Compute(&domain.Snapshot{TradeDate: day("2026-03-04")}, y)
		for _, col := range domain.IndicatorColumns() {
			v, _ := rec.Value(col.Name)
			switch col.Kind {
			case domain.KindRate:
				if v.Valid {
					t.Errorf("yesterday=%v: %s = %v, want undefined", y != nil, col.Name, v.Float64)
				}
			default:
				if !v.Valid || v.Float64 != 0 {
					t.Errorf("yesterday=%v: %s = %v, want 0", y != nil, col.Name, v)
				}
			}
		}
	}
}

func TestComputeNilToday(t *testing.T) {
	rec := Compute(nil, nil)
	if rec.UpCount != 0 || rec.FirstRedRate.Valid {
		t.Errorf("Compute(nil, nil) = %+v, want neutral record", rec)
	}
}

func TestComputeYesterdayWithoutLimitUp(t *testing.T) {
	today, _ := sampleDays()
	yesterday := &domain.Snapshot{
		Quotes: []domain.QuoteRow{{Code: "X", Low: f(9.9)}},
		Limits: []domain.LimitMoveRow{{Code: "Z", Tag: domain.LimitDown}},
	}
	rec := Compute(today, yesterday)
	if rec.FanpaoCount != 1 {
		t.Errorf("FanpaoCount = %d, want 1", rec.FanpaoCount)
	}
	wantUndefined(t, "advance_1to2", rec.Advance1To2)
	wantUndefined(t, "yesterday_first_red_rate", rec.YesterdayFirstRedRate)
}

func TestUndefinedDistinctFromZeroInJSON(t *testing.T) {
	today := &domain.Snapshot{
		Quotes: []domain.QuoteRow{{Code: "A", PctChg: f(-2)}},
		Limits: []domain.LimitMoveRow{{
			Code: "A", Tag: domain.LimitUp, LimitTimes: null.IntFrom(1),
			Open: f(9), PreClose: f(10), PctChg: f(-2),
		}},
	}
	rec := Compute(today, nil)
	got, err := json.Marshal(map[string]null.Float{
		"first_red_rate":  rec.FirstRedRate,
		"second_red_rate": rec.SecondRedRate,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"first_red_rate":0,"second_red_rate":null}`
	if string(got) != want {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}
