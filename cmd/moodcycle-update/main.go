// Batch updater: computes emotion-cycle indicator rows from raw day dumps
// and persists them.
//
// Usage:
//
//	go run cmd/moodcycle-update/main.go            # incremental
//	go run cmd/moodcycle-update/main.go -init [-start 2026-01-01]
//	go run cmd/moodcycle-update/main.go -start 2026-03-01 -end 2026-03-31
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodcycle/internal/backend"
	"moodcycle/internal/config"
	"moodcycle/internal/gather/tushare"
	"moodcycle/internal/metrics"
	"moodcycle/internal/pipeline"
	"moodcycle/internal/store"
	"moodcycle/internal/util"
)

func main() {
	initMode := flag.Bool("init", false, "recompute everything from -start (default update.start_date) to today")
	startStr := flag.String("start", "", "range start date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "range end date (YYYY-MM-DD)")
	flag.Parse()

	cfgPath := "config/moodcycle.yaml"
	if p := os.Getenv("MOODCYCLE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	be, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Storage.Backend, err)
	}
	defer be.Close()

	m := metrics.New()
	u := pipeline.New(
		tushare.NewDirSource(cfg.Storage.DataDir, logger),
		store.NewParquetStore(cfg.Storage.DataDir),
		be,
		pipeline.Options{Workers: cfg.Update.Workers, Metrics: m, Logger: logger},
	)

	rep, err := run(ctx, u, cfg, *initMode, *startStr, *endStr)
	if errors.Is(err, pipeline.ErrNoBaseline) {
		slog.Info("no stored indicators; falling back to init", "start", cfg.Update.StartDate)
		rep, err = run(ctx, u, cfg, true, "", "")
	}
	if err != nil {
		log.Fatalf("update failed: %v", err)
	}

	if cfg.Update.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Update.MetricsFile); err != nil {
			slog.Warn("writing metrics failed", "error", err)
		}
	}

	printReport(rep)
	if rep.Status() == store.RunFailed {
		os.Exit(1)
	}
}

func run(ctx context.Context, u *pipeline.Updater, cfg *config.Config, initMode bool, startStr, endStr string) (*pipeline.Report, error) {
	switch {
	case initMode:
		start, err := parseFlagDate(startStr, cfg.Update.StartDate)
		if err != nil {
			return nil, err
		}
		return u.Init(ctx, start)
	case startStr != "":
		start, err := util.ParseDate(startStr)
		if err != nil {
			return nil, fmt.Errorf("-start: %w", err)
		}
		end, err := parseFlagDate(endStr, util.FormatDate(util.Today()))
		if err != nil {
			return nil, err
		}
		return u.Range(ctx, start, end)
	case endStr != "":
		return nil, errors.New("-end requires -start")
	default:
		return u.Incremental(ctx)
	}
}

func parseFlagDate(s, fallback string) (time.Time, error) {
	if s == "" {
		s = fallback
	}
	d, err := util.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

func printReport(rep *pipeline.Report) {
	fmt.Printf("%s update %s..%s: %s, %d day(s) computed\n",
		rep.Mode, util.FormatDate(rep.Start), util.FormatDate(rep.End), rep.Status(), rep.Computed)
	for _, f := range rep.Failed {
		fmt.Printf("  failed %s: %v\n", util.FormatDate(f.Date), f.Err)
	}
}
