package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
	"moodcycle/internal/util"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ IndicatorStore = (*SQLiteStore)(nil)
var _ RunLog = (*SQLiteStore)(nil)

// SQLiteStore implements IndicatorStore and RunLog backed by a SQLite
// database with the tables emotion_cycle and update_log.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// tables if needed, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	cols := []string{domain.ColumnTradeDate + " TEXT PRIMARY KEY"}
	for _, c := range domain.IndicatorColumns() {
		typ := "REAL"
		if c.Kind == domain.KindCount {
			typ = "INTEGER NOT NULL DEFAULT 0"
		}
		cols = append(cols, c.Name+" "+typ)
	}
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS emotion_cycle (\n\t" + strings.Join(cols, ",\n\t") + "\n)",
		`CREATE TABLE IF NOT EXISTS update_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	mode       TEXT NOT NULL,
	start_date TEXT,
	end_date   TEXT,
	days_count INTEGER NOT NULL DEFAULT 0,
	status     TEXT NOT NULL,
	message    TEXT,
	run_at     TEXT NOT NULL
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// IndicatorStore implementation
// ---------------------------------------------------------------------------

// UpsertIndicators inserts records, updating every column of an existing
// trading date. All records are written in one transaction.
func (s *SQLiteStore) UpsertIndicators(ctx context.Context, records []domain.IndicatorRecord) error {
	if len(records) == 0 {
		return nil
	}

	names := domain.ColumnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	updates := make([]string, 0, len(names)-1)
	for _, n := range names[1:] {
		updates = append(updates, n+" = excluded."+n)
	}
	query := fmt.Sprintf(
		"INSERT INTO emotion_cycle (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		strings.Join(names, ", "), placeholders, domain.ColumnTradeDate, strings.Join(updates, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	cols := domain.IndicatorColumns()
	for i := range records {
		args := make([]any, 0, len(names))
		args = append(args, util.FormatDate(records[i].TradeDate))
		for j, v := range records[i].Values() {
			args = append(args, sqlValue(cols[j], v))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upserting %s: %w", util.FormatDate(records[i].TradeDate), err)
		}
	}
	return tx.Commit()
}

// sqlValue maps an indicator value to its column representation.
func sqlValue(c domain.Column, v null.Float) any {
	if !v.Valid {
		return nil
	}
	if c.Kind == domain.KindCount {
		return int64(v.Float64)
	}
	return v.Float64
}

// LoadIndicators returns the rows within q, newest first.
func (s *SQLiteStore) LoadIndicators(ctx context.Context, q Query) ([]domain.IndicatorRecord, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, domain.ColumnTradeDate+" >= ?")
		args = append(args, util.FormatDate(q.Start))
	}
	if !q.End.IsZero() {
		where = append(where, domain.ColumnTradeDate+" <= ?")
		args = append(args, util.FormatDate(q.End))
	}
	query := "SELECT " + strings.Join(domain.ColumnNames(), ", ") + " FROM emotion_cycle"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + domain.ColumnTradeDate + " DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying indicators: %w", err)
	}
	defer rows.Close()

	cols := domain.IndicatorColumns()
	var out []domain.IndicatorRecord
	for rows.Next() {
		var date string
		vals := make([]sql.NullFloat64, len(cols))
		dest := make([]any, 0, len(cols)+1)
		dest = append(dest, &date)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning indicator row: %w", err)
		}

		var rec domain.IndicatorRecord
		if rec.TradeDate, err = util.ParseDate(date); err != nil {
			return nil, err
		}
		for i, c := range cols {
			rec.SetValue(c.Name, null.Float{NullFloat64: vals[i]})
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DateBounds returns the first and last stored trading dates.
func (s *SQLiteStore) DateBounds(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var lo, hi sql.NullString
	row := s.db.QueryRowContext(ctx,
		"SELECT MIN("+domain.ColumnTradeDate+"), MAX("+domain.ColumnTradeDate+") FROM emotion_cycle")
	if err = row.Scan(&lo, &hi); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("querying date bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	if first, err = util.ParseDate(lo.String); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if last, err = util.ParseDate(hi.String); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return first, last, true, nil
}

// ---------------------------------------------------------------------------
// RunLog implementation
// ---------------------------------------------------------------------------

// LogRun inserts an update_log row.
func (s *SQLiteStore) LogRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO update_log (mode, start_date, end_date, days_count, status, message, run_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Mode,
		formatOptionalDate(run.Start),
		formatOptionalDate(run.End),
		run.Days,
		string(run.Status),
		run.Message,
		run.RunAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting update log: %w", err)
	}
	return nil
}

// LastRun returns the most recently inserted update_log row.
func (s *SQLiteStore) LastRun(ctx context.Context) (*Run, error) {
	var (
		run        Run
		start, end sql.NullString
		status, at string
		message    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, start_date, end_date, days_count, status, message, run_at
		 FROM update_log ORDER BY id DESC LIMIT 1`,
	).Scan(&run.Mode, &start, &end, &run.Days, &status, &message, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying update log: %w", err)
	}

	run.Status = RunStatus(status)
	run.Message = message.String
	if run.Start, err = parseOptionalDate(start.String); err != nil {
		return nil, err
	}
	if run.End, err = parseOptionalDate(end.String); err != nil {
		return nil, err
	}
	if run.RunAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return nil, fmt.Errorf("parsing run_at %q: %w", at, err)
	}
	return &run, nil
}
