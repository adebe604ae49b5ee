package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/xuri/excelize/v2"

	"moodcycle/internal/domain"
	"moodcycle/internal/export"
)

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotion_cycle.xlsx")
	records := []domain.IndicatorRecord{
		{TradeDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), UpCount: 7, FirstPremium: null.FloatFrom(1.5)},
	}
	if err := writeWorkbook(path, records); err != nil {
		t.Fatalf("writeWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2026-03-03" {
		t.Errorf("rows = %v, want header and one 2026-03-03 row", rows)
	}
}

func TestWriteWorkbookBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.xlsx")
	if err := writeWorkbook(path, nil); err == nil {
		t.Error("writeWorkbook should fail when the directory does not exist")
	}
}
