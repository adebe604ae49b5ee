package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"moodcycle/internal/domain"
	"moodcycle/internal/store"
	"moodcycle/internal/util"
)

// Grade styles. Red is up on CN boards.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	gradeStyle  = map[Grade]lipgloss.Style{
		GradeGood: cellStyle.Foreground(lipgloss.Color("9")),
		GradeBad:  cellStyle.Foreground(lipgloss.Color("10")),
	}
)

// TableOptions controls WriteTable.
type TableOptions struct {
	Columns    []string // indicator columns to show; all when empty
	Thresholds Thresholds
	Color      bool
}

// WriteTable renders records as a bordered text table, one row per record in
// the order given.
func WriteTable(w io.Writer, records []domain.IndicatorRecord, opts TableOptions) error {
	cols, err := selectColumns(opts.Columns)
	if err != nil {
		return err
	}

	header := make([]string, 0, len(cols)+1)
	header = append(header, domain.ColumnTradeDate)
	for _, c := range cols {
		header = append(header, c.Name)
	}

	rows := make([][]string, len(records))
	grades := make([][]Grade, len(records))
	for i := range records {
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, util.FormatDate(records[i].TradeDate))
		g := make([]Grade, len(cols)+1)
		for j, c := range cols {
			v, _ := records[i].Value(c.Name)
			cells = append(cells, FormatValue(c, v))
			if opts.Color {
				g[j+1] = opts.Thresholds.Grade(c.Name, v)
			}
		}
		rows[i], grades[i] = cells, g
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(grades) && col < len(grades[row]) {
				if st, ok := gradeStyle[grades[row][col]]; ok {
					return st
				}
			}
			return cellStyle
		})
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func selectColumns(names []string) ([]domain.Column, error) {
	all := domain.IndicatorColumns()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]domain.Column, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}
	out := make([]domain.Column, 0, len(names))
	for _, n := range names {
		c, ok := byName[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", n)
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteJSON renders records as a JSON array of objects with keys in schema
// order. Undefined values are null.
func WriteJSON(w io.Writer, records []domain.IndicatorRecord) error {
	cols := domain.IndicatorColumns()
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"` + domain.ColumnTradeDate + `":"` + util.FormatDate(records[i].TradeDate) + `"`)
		for j, v := range records[i].Values() {
			b, err := v.MarshalJSON()
			if err != nil {
				return err
			}
			key, _ := json.Marshal(cols[j].Name)
			buf.WriteByte(',')
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// Summary describes the stored data set.
type Summary struct {
	First   time.Time
	Last    time.Time
	Days    int
	LastRun *store.Run
}

// WriteSummary renders s as "key: value" lines.
func WriteSummary(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if s.Days == 0 {
		fmt.Fprintln(tw, "data:\tnone")
	} else {
		fmt.Fprintf(tw, "range:\t%s .. %s\n", util.FormatDate(s.First), util.FormatDate(s.Last))
		fmt.Fprintf(tw, "days:\t%s\n", FormatInt(s.Days))
	}
	if r := s.LastRun; r != nil {
		fmt.Fprintf(tw, "last run:\t%s\n", r.RunAt.In(util.ShanghaiLocation()).Format("2006-01-02 15:04:05"))
		fmt.Fprintf(tw, "last mode:\t%s\n", r.Mode)
		fmt.Fprintf(tw, "last status:\t%s (%d days)\n", r.Status, r.Days)
		if r.Message != "" {
			fmt.Fprintf(tw, "last message:\t%s\n", r.Message)
		}
	}
	return tw.Flush()
}
