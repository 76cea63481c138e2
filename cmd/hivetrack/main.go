package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LdDl/hive-mot/config"
	"github.com/LdDl/hive-mot/mot"
	"github.com/LdDl/hive-mot/pipeline"
	"github.com/LdDl/hive-mot/report"
	"github.com/LdDl/hive-mot/storage"
	"github.com/LdDl/hive-mot/zones"
	"github.com/pkg/errors"
)

const usage = `Usage:
  hivetrack track -csv DIR -out DIR -zones FILE [-tuning FILE] [-db FILE] [-workers N] [-allow-missing-zone] [-progress]
  hivetrack plot -report FILE -date YYYYMMDD -out FILE(.png|.html)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "hivetrack: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("no command given")
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: settings.LogLevel}))
	switch args[0] {
	case "track":
		return runTrack(ctx, args[1:], settings, logger, stdout, stderr)
	case "plot":
		return runPlot(args[1:], logger, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return errors.Errorf("unknown command '%s'", args[0])
	}
}

func runTrack(ctx context.Context, args []string, settings config.Settings, logger *slog.Logger, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvDir := fs.String("csv", settings.CSVDir, "directory with detections CSV files")
	outDir := fs.String("out", settings.OutputDir, "directory for reports")
	zonesFile := fs.String("zones", settings.ZonesFile, "zone file (HuJSON or legacy tuple format)")
	tuningFile := fs.String("tuning", settings.TuningFile, "optional tuning JSON overriding tracking parameters")
	dbPath := fs.String("db", settings.DBPath, "optional SQLite database for runs and tracks")
	workers := fs.Int("workers", settings.Workers, "number of files tracked concurrently")
	allowMissingZone := fs.Bool("allow-missing-zone", false, "track files without zone instead of skipping them")
	progress := fs.Bool("progress", false, "show progress bar on stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := mot.DefaultConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuning(*tuningFile)
		if err != nil {
			return err
		}
		if cfg, err = tuning.Apply(cfg); err != nil {
			return err
		}
	}
	engine, err := mot.NewEngine(cfg, mot.WithLogger(logger))
	if err != nil {
		return err
	}
	registry, err := zones.Load(*zonesFile)
	if err != nil {
		return err
	}
	logger.Info("zones loaded", slog.String("file", *zonesFile), slog.Int("dates", registry.Len()))
	writer, err := report.NewWriter(*outDir)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(*workers),
		pipeline.WithAllowMissingZone(*allowMissingZone),
		pipeline.WithLogger(logger),
	}
	if *progress {
		opts = append(opts, pipeline.WithProgress(stderr))
	}
	if *dbPath != "" {
		store, err := storage.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithStore(store))
	}

	summary, err := pipeline.NewProcessor(engine, registry, writer, opts...).ProcessDir(ctx, *csvDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Files: %d. Tracked: %d. No data: %d. Already processed: %d. Missing zone: %d\n",
		summary.Discovered, summary.Tracked, summary.NoData, summary.AlreadyProcessed, summary.MissingZone)
	fmt.Fprintf(stdout, "Tracks: %d. Enter: %d. Exit: %d. Inside: %d. Outside: %d\n",
		summary.Tracks, summary.Counts.Enter, summary.Counts.Exit, summary.Counts.Inside, summary.Counts.Outside)
	return nil
}

func runPlot(args []string, logger *slog.Logger, stderr io.Writer) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	reportFile := fs.String("report", "", "path to "+report.StatsTextFile)
	date := fs.String("date", "", "date to plot, YYYYMMDD")
	out := fs.String("out", "", "output chart file, .png or .html")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reportFile == "" || *date == "" || *out == "" {
		fs.Usage()
		return errors.New("-report, -date and -out are required")
	}

	summary, err := report.LoadSummary(*reportFile)
	if err != nil {
		return err
	}
	series, err := report.DailySeries(summary, *date)
	if err != nil {
		return err
	}
	if err := report.SaveChart(series, *out); err != nil {
		return err
	}
	logger.Info("chart saved", slog.String("date", *date), slog.String("file", *out), slog.Int("points", series.Len()))
	return nil
}
