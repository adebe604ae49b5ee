package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/xuri/excelize/v2"

	"moodcycle/internal/domain"
)

func TestWriteXLSX(t *testing.T) {
	records := []domain.IndicatorRecord{
		{
			TradeDate:    time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			UpCount:      3100,
			BreakRate:    22.5,
			FirstRedRate: null.FloatFrom(0),
		},
		{
			TradeDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			UpCount:      1200,
			FirstRedRate: null.FloatFrom(61.54),
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, records); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	if len(header) != len(domain.ColumnNames()) || header[0] != domain.ColumnTradeDate {
		t.Fatalf("header = %v", header)
	}

	cell := func(row int, col string) string {
		r := rows[row]
		i := index[col]
		if i >= len(r) {
			return ""
		}
		return r[i]
	}

	if got := cell(1, domain.ColumnTradeDate); got != "2026-03-03" {
		t.Errorf("trading_date = %q, want 2026-03-03", got)
	}
	if got := cell(1, "up_count"); got != "3100" {
		t.Errorf("up_count = %q, want 3100", got)
	}
	if got := cell(1, "break_rate"); got != "22.5" {
		t.Errorf("break_rate = %q, want 22.5", got)
	}
	if got := cell(1, "first_red_rate"); got != "0" {
		t.Errorf("first_red_rate = %q, want 0 for a computed zero", got)
	}
	if got := cell(1, "advance_1to2"); got != "" {
		t.Errorf("advance_1to2 = %q, want empty for undefined", got)
	}
	if got := cell(2, "first_red_rate"); got != "61.54" {
		t.Errorf("second row first_red_rate = %q, want 61.54", got)
	}
}
