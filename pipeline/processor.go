package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/LdDl/hive-mot/detections"
	"github.com/LdDl/hive-mot/mot"
	"github.com/LdDl/hive-mot/report"
	"github.com/LdDl/hive-mot/storage"
	"github.com/LdDl/hive-mot/zones"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Summary describes a batch run
type Summary struct {
	// CSV files found in directory
	Discovered int
	// Already present in the ledger or the store
	AlreadyProcessed int
	// Skipped because there is no zone for the file's date
	MissingZone int
	// Files with invalid or insufficient detections
	NoData int
	// Files tracked successfully
	Tracked int
	// Surviving tracks of all tracked files
	Tracks int
	// Direction counts of all tracked files having a zone
	Counts mot.DirectionCounts
}

// Processor tracks every new detections file of a directory and writes reports
type Processor struct {
	engine   *mot.Engine
	registry *zones.Registry
	writer   *report.Writer
	store    *storage.Store

	workers          int
	allowMissingZone bool
	progress         progressOutput
	logger           *slog.Logger
}

// NewProcessor creates new instance of Processor
func NewProcessor(engine *mot.Engine, registry *zones.Registry, writer *report.Writer, opts ...Option) *Processor {
	o := collectOptions(opts)
	return &Processor{
		engine:           engine,
		registry:         registry,
		writer:           writer,
		store:            o.store,
		workers:          o.workers,
		allowMissingZone: o.allowMissingZone,
		progress:         progressOutput{w: o.progress},
		logger:           o.logger,
	}
}

type job struct {
	path string
	date string
	time string
	zone *mot.Zone
}

type outcome struct {
	done    bool
	feed    *detections.Feed
	result  *mot.Result
	noData  bool
	elapsed time.Duration
}

// ProcessDir discovers files newest first, skips processed ones, tracks the rest concurrently
// and writes reports sequentially in discovery order.
func (p *Processor) ProcessDir(ctx context.Context, dir string) (Summary, error) {
	summary := Summary{}
	paths, err := detections.Discover(dir)
	if err != nil {
		return summary, err
	}
	summary.Discovered = len(paths)
	p.logger.Info("csv folder scanned", slog.String("dir", dir), slog.Int("files", len(paths)))

	ledger, err := report.LoadLedger(p.writer.Dir())
	if err != nil {
		return summary, err
	}
	jobs, err := p.plan(ctx, paths, ledger, &summary)
	if err != nil {
		return summary, err
	}

	outcomes := make([]outcome, len(jobs))
	bar := p.progress.bar(len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.track(gctx, jobs[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			bar.Add(1)
			return nil
		})
	}
	runErr := g.Wait()
	bar.Finish()

	// Completed files are written even if another one failed, so they are not tracked again
	for i, out := range outcomes {
		if !out.done {
			continue
		}
		if err := p.write(ctx, jobs[i], out, &summary); err != nil {
			return summary, err
		}
	}
	if runErr != nil {
		return summary, errors.Wrap(runErr, "batch interrupted")
	}
	p.logger.Info("batch finished",
		slog.Int("discovered", summary.Discovered),
		slog.Int("already_processed", summary.AlreadyProcessed),
		slog.Int("missing_zone", summary.MissingZone),
		slog.Int("no_data", summary.NoData),
		slog.Int("tracked", summary.Tracked),
		slog.Int("tracks", summary.Tracks),
	)
	return summary, nil
}

// plan filters out processed files and files without zone
func (p *Processor) plan(ctx context.Context, paths []string, ledger report.Ledger, summary *Summary) ([]job, error) {
	jobs := make([]job, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		date, _ := detections.DateFromName(name)
		tm, _ := detections.TimeFromName(name)
		j := job{path: path, date: date, time: tm}

		zone, err := p.registry.Lookup(date)
		switch {
		case err == nil:
			j.zone = &zone
		case errors.Is(err, zones.ErrZoneNotFound) && p.allowMissingZone:
			p.logger.Warn("zone not found, tracking without classification", slog.String("file", name), slog.String("date", date))
		case errors.Is(err, zones.ErrZoneNotFound):
			p.logger.Info("skipping file, zone not found", slog.String("file", name), slog.String("date", date))
			summary.MissingZone++
			continue
		default:
			return nil, err
		}

		processed := ledger.Contains(name)
		if !processed && p.store != nil {
			processed, err = p.store.IsProcessed(ctx, name)
			if err != nil {
				return nil, err
			}
		}
		if processed {
			p.logger.Debug("skipping processed file", slog.String("file", name))
			summary.AlreadyProcessed++
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (p *Processor) track(ctx context.Context, j job) (outcome, error) {
	started := time.Now()
	feed, err := detections.Load(j.path)
	if errors.Is(err, detections.ErrInvalidInput) {
		p.logger.Warn("no usable detections", slog.String("file", filepath.Base(j.path)), slog.String("reason", err.Error()))
		return outcome{done: true, noData: true, elapsed: time.Since(started)}, nil
	}
	if err != nil {
		return outcome{}, err
	}
	result, err := p.engine.Run(ctx, feed, feed.Start(), feed.End(), j.zone)
	if err != nil {
		return outcome{}, errors.Wrapf(err, "file '%s'", filepath.Base(j.path))
	}
	return outcome{done: true, feed: feed, result: result, elapsed: time.Since(started)}, nil
}

func (p *Processor) write(ctx context.Context, j job, out outcome, summary *Summary) error {
	name := filepath.Base(j.path)
	if out.noData {
		summary.NoData++
		if err := p.writer.Append(report.NoDataStats(name)); err != nil {
			return err
		}
		return p.save(ctx, storage.RunRecord{FileName: name, Date: j.date, Time: j.time, NoData: true}, nil)
	}

	stats := report.NewFileStats(name, out.feed.Len(), j.date, p.engine.Config(), out.result)
	if err := p.writer.Append(stats); err != nil {
		return err
	}
	if err := p.writer.WriteTracks(name, out.result.Tracks); err != nil {
		return err
	}
	run := storage.RunRecord{
		RunID:       out.result.RunID,
		FileName:    name,
		Date:        j.date,
		Time:        j.time,
		Start:       out.result.Start,
		End:         out.result.End,
		Records:     out.feed.Len(),
		TotalTracks: len(out.result.Tracks),
		Counts:      out.result.Counts,
	}
	if err := p.save(ctx, run, out.result.Tracks); err != nil {
		return err
	}

	summary.Tracked++
	summary.Tracks += len(out.result.Tracks)
	if out.result.Counts != nil {
		summary.Counts.Inside += out.result.Counts.Inside
		summary.Counts.Enter += out.result.Counts.Enter
		summary.Counts.Exit += out.result.Counts.Exit
		summary.Counts.Outside += out.result.Counts.Outside
	}
	p.logger.Info("file processed",
		slog.String("file", name),
		slog.String("run_id", out.result.RunID.String()),
		slog.Int("records", out.feed.Len()),
		slog.Int("tracks", len(out.result.Tracks)),
		slog.Duration("elapsed", out.elapsed),
	)
	return nil
}

func (p *Processor) save(ctx context.Context, run storage.RunRecord, tracks []mot.ClassifiedTrack) error {
	if p.store == nil {
		return nil
	}
	return p.store.SaveRun(ctx, run, tracks)
}

// progressOutput creates either visible or silent progress bars
type progressOutput struct {
	w io.Writer
}

func (po progressOutput) bar(total int) *progressbar.ProgressBar {
	if po.w == nil {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(po.w),
		progressbar.OptionSetDescription("tracking"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
