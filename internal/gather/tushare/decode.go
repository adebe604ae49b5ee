// Package tushare reads tushare-format payload dumps into snapshots.
//
// A payload is {"code":0,"msg":"","data":{"fields":[...],"items":[[...]]}}.
package tushare

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"github.com/tidwall/gjson"

	"moodcycle/internal/domain"
	"moodcycle/internal/util"
)

// ErrPayload reports a payload the provider marked as failed or that is not
// a tushare table.
var ErrPayload = errors.New("tushare: bad payload")

// table is a decoded fields/items payload.
type table struct {
	index map[string]int
	items []gjson.Result
}

func decodeTable(body []byte) (*table, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrPayload)
	}
	if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != 0 {
		return nil, fmt.Errorf("%w: code %d: %s", ErrPayload, code.Int(), gjson.GetBytes(body, "msg").String())
	}
	fields := gjson.GetBytes(body, "data.fields")
	if !fields.IsArray() {
		return nil, fmt.Errorf("%w: no data.fields", ErrPayload)
	}
	t := &table{index: make(map[string]int)}
	for i, f := range fields.Array() {
		t.index[f.String()] = i
	}
	t.items = gjson.GetBytes(body, "data.items").Array()
	return t, nil
}

// row is one item of a table.
type row struct {
	t     *table
	cells []gjson.Result
}

func (t *table) rows() []row {
	out := make([]row, 0, len(t.items))
	for _, it := range t.items {
		if !it.IsArray() {
			continue
		}
		out = append(out, row{t: t, cells: it.Array()})
	}
	return out
}

func (r row) cell(name string) (gjson.Result, bool) {
	i, ok := r.t.index[name]
	if !ok || i >= len(r.cells) || r.cells[i].Type == gjson.Null {
		return gjson.Result{}, false
	}
	return r.cells[i], true
}

func (r row) str(name string) string {
	c, ok := r.cell(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.String())
}

func (r row) float(name string) null.Float {
	c, ok := r.cell(name)
	if !ok {
		return null.Float{}
	}
	var v float64
	switch c.Type {
	case gjson.Number:
		v = c.Float()
	case gjson.String:
		var err error
		if v, err = strconv.ParseFloat(strings.TrimSpace(c.Str), 64); err != nil {
			return null.Float{}
		}
	default:
		return null.Float{}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func (r row) integer(name string) null.Int {
	f := r.float(name)
	if !f.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(f.Float64))
}

// DecodeQuotes decodes a daily payload. Rows without ts_code are skipped.
func DecodeQuotes(body []byte) ([]domain.QuoteRow, error) {
	t, err := decodeTable(body)
	if err != nil {
		return nil, err
	}
	rows := t.rows()
	out := make([]domain.QuoteRow, 0, len(rows))
	for _, r := range rows {
		code := r.str("ts_code")
		if code == "" {
			continue
		}
		out = append(out, domain.QuoteRow{
			Code:     code,
			PctChg:   r.float("pct_chg"),
			Open:     r.float("open"),
			High:     r.float("high"),
			Low:      r.float("low"),
			Close:    r.float("close"),
			PreClose: r.float("pre_close"),
			Amount:   r.float("amount"),
		})
	}
	return out, nil
}

// DecodeLimits decodes a limit_list_d payload. The tag comes from the
// "limit" field; rows without ts_code are skipped.
func DecodeLimits(body []byte) ([]domain.LimitMoveRow, error) {
	t, err := decodeTable(body)
	if err != nil {
		return nil, err
	}
	rows := t.rows()
	out := make([]domain.LimitMoveRow, 0, len(rows))
	for _, r := range rows {
		code := r.str("ts_code")
		if code == "" {
			continue
		}
		out = append(out, domain.LimitMoveRow{
			Code:       code,
			Name:       r.str("name"),
			Industry:   r.str("industry"),
			Tag:        domain.LimitTag(strings.ToUpper(r.str("limit"))),
			LimitTimes: r.integer("limit_times"),
			PctChg:     r.float("pct_chg"),
			Close:      r.float("close"),
			Amount:     r.float("amount"),
			FdAmount:   r.float("fd_amount"),
			Open:       r.float("open"),
			High:       r.float("high"),
			Low:        r.float("low"),
			PreClose:   r.float("pre_close"),
		})
	}
	return out, nil
}

// DecodeCalendar decodes a trade_cal payload into its open dates, ascending.
func DecodeCalendar(body []byte) ([]time.Time, error) {
	t, err := decodeTable(body)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, r := range t.rows() {
		if open := r.integer("is_open"); !open.Valid || open.Int64 != 1 {
			continue
		}
		d, err := util.ParseDate(r.str("cal_date"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayload, err)
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
