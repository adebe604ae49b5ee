package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"moodcycle/internal/backend"
	"moodcycle/internal/config"
	"moodcycle/internal/dashboard"
	"moodcycle/internal/domain"
	"moodcycle/internal/export"
	"moodcycle/internal/store"
	"moodcycle/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: moodcycle-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  show       Print indicator rows, newest first\n")
		fmt.Fprintf(os.Stderr, "  stats      Show the stored date range and the last update run\n")
		fmt.Fprintf(os.Stderr, "  export     Write indicator rows to an Excel workbook\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("moodcycle-cli %s\n", version)

	case "show":
		err = show(os.Args[2:])

	case "stats":
		err = stats(os.Args[2:])

	case "export":
		err = exportXLSX(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// open loads the configuration and the selected store.
func open(ctx context.Context) (*config.Config, store.Backend, error) {
	cfgPath := "config/moodcycle.yaml"
	if p := os.Getenv("MOODCYCLE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	be, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return cfg, be, nil
}

// rangeFlags registers -start and -end on fs.
func rangeFlags(fs *flag.FlagSet) (start, end *string) {
	start = fs.String("start", "", "first trading date (YYYY-MM-DD)")
	end = fs.String("end", "", "last trading date (YYYY-MM-DD)")
	return start, end
}

func parseQuery(start, end string) (store.Query, error) {
	var q store.Query
	var err error
	if start != "" {
		if q.Start, err = util.ParseDate(start); err != nil {
			return q, fmt.Errorf("-start: %w", err)
		}
	}
	if end != "" {
		if q.End, err = util.ParseDate(end); err != nil {
			return q, fmt.Errorf("-end: %w", err)
		}
	}
	return q, nil
}

func load(ctx context.Context, be store.Backend, start, end string) ([]domain.IndicatorRecord, error) {
	q, err := parseQuery(start, end)
	if err != nil {
		return nil, err
	}
	return be.LoadIndicators(ctx, q)
}

func show(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	start, end := rangeFlags(fs)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	columns := fs.String("columns", "", "comma-separated indicator columns (default all)")
	color := fs.Bool("color", false, "colour values by threshold grade")
	n := fs.Int("n", 0, "show at most n most recent days (0 = all)")
	fs.Parse(args)

	ctx := context.Background()
	cfg, be, err := open(ctx)
	if err != nil {
		return err
	}
	defer be.Close()

	records, err := load(ctx, be, *start, *end)
	if err != nil {
		return err
	}
	if *n > 0 && len(records) > *n {
		records = records[:*n]
	}

	if *asJSON {
		return dashboard.WriteJSON(os.Stdout, records)
	}
	var cols []string
	if *columns != "" {
		cols = strings.Split(*columns, ",")
	}
	return dashboard.WriteTable(os.Stdout, records, dashboard.TableOptions{
		Columns:    cols,
		Thresholds: cfg.Thresholds,
		Color:      *color,
	})
}

func stats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	_, be, err := open(ctx)
	if err != nil {
		return err
	}
	defer be.Close()

	var s dashboard.Summary
	first, last, ok, err := be.DateBounds(ctx)
	if err != nil {
		return err
	}
	if ok {
		records, err := be.LoadIndicators(ctx, store.Query{})
		if err != nil {
			return err
		}
		s.First, s.Last, s.Days = first, last, len(records)
	}
	if s.LastRun, err = be.LastRun(ctx); err != nil {
		return err
	}
	return dashboard.WriteSummary(os.Stdout, s)
}

func exportXLSX(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	start, end := rangeFlags(fs)
	out := fs.String("o", "", "output file (default emotion_cycle_<date>.xlsx)")
	fs.Parse(args)

	ctx := context.Background()
	_, be, err := open(ctx)
	if err != nil {
		return err
	}
	defer be.Close()

	records, err := load(ctx, be, *start, *end)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("emotion_cycle_%s.xlsx", time.Now().In(util.ShanghaiLocation()).Format(util.CompactLayout))
	}
	if path == "-" {
		return export.WriteXLSX(os.Stdout, records)
	}
	if err := writeWorkbook(path, records); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(records), path)
	return nil
}

// writeWorkbook writes records to a new XLSX file at path, returning any
// error from closing it.
func writeWorkbook(path string, records []domain.IndicatorRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
