package mot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FrameSource supplies detections of a frame
type FrameSource interface {
	Detections(frameID int) []Point
}

// FrameSourceFunc is an adapter to use ordinary functions as FrameSource
type FrameSourceFunc func(frameID int) []Point

// Detections calls f(frameID)
func (f FrameSourceFunc) Detections(frameID int) []Point {
	return f(frameID)
}

// ClassifiedTrack is a surviving track with its direction relative to the zone (DirectionNone if there was no zone)
type ClassifiedTrack struct {
	*Track
	Direction Direction
}

// Result is output of a single engine run
type Result struct {
	RunID uuid.UUID
	Start int
	End   int
	// Surviving tracks sorted by length descending
	Tracks []ClassifiedTrack
	// Per-direction counts. Nil when run had no zone
	Counts *DirectionCounts
	// Number of tracks created before filtering
	TotalCreated int
}

// Engine runs tracking over bounded frame ranges. It keeps only configuration,
// so independent runs may be executed concurrently.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngineDefault creates Engine with DefaultConfig
func NewEngineDefault(opts ...Option) *Engine {
	engine, _ := NewEngine(DefaultConfig(), opts...)
	return engine
}

// NewEngine creates new instance of Engine
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid tracking config")
	}
	o := collectOptions(opts)
	return &Engine{
		cfg:    cfg,
		logger: o.logger,
	}, nil
}

// Config returns engine's parameters
func (engine *Engine) Config() Config {
	return engine.cfg
}

// Run tracks objects over frames [start, end], filters and sorts tracks, then classifies them when zone is not nil.
// Context is checked between frames only.
func (engine *Engine) Run(ctx context.Context, source FrameSource, start, end int, zone *Zone) (*Result, error) {
	if start > end {
		return nil, errors.Errorf("degenerate frame range [%d, %d]", start, end)
	}
	if source == nil {
		return nil, errors.New("frame source is nil")
	}
	if zone != nil {
		if err := zone.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid zone")
		}
	}

	runID := uuid.New()
	logger := engine.logger.With(slog.String("run_id", runID.String()))
	manager := NewTrackManager(engine.cfg, WithLogger(logger))
	for frame := start; frame <= end; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "run abandoned at frame %d", frame)
		}
		_, err := manager.Step(frame, source.Detections(frame))
		if err != nil {
			return nil, errors.Wrapf(err, "can't process frame %d", frame)
		}
	}

	survivors := FilterTracks(manager.Tracks(), engine.cfg.MinTrackLength, engine.cfg.MinTrackDistance)
	result := &Result{
		RunID:        runID,
		Start:        start,
		End:          end,
		Tracks:       make([]ClassifiedTrack, len(survivors)),
		TotalCreated: manager.TotalCreated(),
	}
	if zone != nil {
		result.Counts = &DirectionCounts{}
	}
	for i, track := range survivors {
		result.Tracks[i] = ClassifiedTrack{Track: track}
		if zone == nil {
			continue
		}
		direction := ClassifyDirection(track.First(), track.Last(), *zone)
		result.Tracks[i].Direction = direction
		result.Counts.Add(direction)
	}

	attrs := []any{
		slog.Int("start", start),
		slog.Int("end", end),
		slog.Int("created", result.TotalCreated),
		slog.Int("survived", len(result.Tracks)),
	}
	if result.Counts != nil {
		attrs = append(attrs,
			slog.Int("inside", result.Counts.Inside),
			slog.Int("enter", result.Counts.Enter),
			slog.Int("exit", result.Counts.Exit),
			slog.Int("outside", result.Counts.Outside),
		)
	}
	logger.Info("tracking run finished", attrs...)
	return result, nil
}
