package mot

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDetection is returned when a frame contains non-finite coordinates
	ErrInvalidDetection = errors.New("invalid detection")
	// ErrFrameOrder is returned when frames are not supplied in strictly increasing order
	ErrFrameOrder = errors.New("frames must be processed in increasing order")
)

// StepStats describes what happened to tracks on a single frame
type StepStats struct {
	FrameID int
	Matched int
	Born    int
	Pruned  int
	Active  int
}

// TrackManager owns active tracks and registry of every track ever created during a run.
// It is not safe for concurrent use: frames must be fed sequentially.
type TrackManager struct {
	associator   *Associator
	newEstimator func(Point) StateEstimator
	// Max number of frames a track could be missed before it leaves active set. Default 20
	maxFramesBeforeDeath int

	// Active tracks in creation order
	active []*Track
	// Every track ever created, by id
	registry map[int]*Track
	// Same tracks as registry in discovery order
	discovered []*Track

	nextID    int
	lastFrame int
	started   bool
	logger    *slog.Logger
}

// NewTrackManagerDefault creates TrackManager with DefaultConfig
func NewTrackManagerDefault(opts ...Option) *TrackManager {
	return NewTrackManager(DefaultConfig(), opts...)
}

// NewTrackManager creates new instance of TrackManager
func NewTrackManager(cfg Config, opts ...Option) *TrackManager {
	o := collectOptions(opts)
	return &TrackManager{
		associator:           NewAssociator(cfg.DistanceThreshold, cfg.Matching),
		newEstimator:         estimatorFactory(cfg.Estimator, cfg.ProcessNoise, cfg.MeasurementNoise),
		maxFramesBeforeDeath: cfg.MaxFramesBeforeDeath,
		active:               make([]*Track, 0),
		registry:             make(map[int]*Track),
		discovered:           make([]*Track, 0),
		logger:               o.logger,
	}
}

// Step processes detections of a single frame: predict, associate, update or birth, prune, register.
// Either the whole step is applied or (on error) nothing is changed.
func (tm *TrackManager) Step(frameID int, detections []Point) (StepStats, error) {
	if tm.started && frameID <= tm.lastFrame {
		return StepStats{}, errors.Wrapf(ErrFrameOrder, "got frame %d after frame %d", frameID, tm.lastFrame)
	}
	for i, detection := range detections {
		if !detection.IsFinite() {
			return StepStats{}, errors.Wrapf(ErrInvalidDetection, "frame %d, detection %d: (%f, %f)", frameID, i, detection.X, detection.Y)
		}
	}
	tm.started = true
	tm.lastFrame = frameID
	stats := StepStats{FrameID: frameID}

	// 1. Predict next positions for all active tracks
	predicted := make([]Point, len(tm.active))
	for i, track := range tm.active {
		track.predict()
		predicted[i] = track.GetPredictedPosition()
	}

	// 2. Associate
	association := tm.associator.Associate(predicted, detections)

	// 3. Update matched tracks
	consumed := make([]bool, len(detections))
	for _, match := range association.Matches {
		track := tm.active[match.TrackIdx]
		err := track.update(frameID, detections[match.DetectionIdx], match.Cost)
		if err != nil {
			// Track is retired below; the detection is free to start a new track
			tm.logger.Warn("track excluded from further updates",
				slog.Int("track_id", track.id),
				slog.Int("frame", frameID),
				slog.String("error", err.Error()),
			)
			continue
		}
		consumed[match.DetectionIdx] = true
		stats.Matched++
	}

	// 4. Birth new tracks for unconsumed detections
	for j, detection := range detections {
		if consumed[j] {
			continue
		}
		track := newTrack(tm.nextID, frameID, detection, tm.newEstimator(detection))
		tm.nextID++
		tm.active = append(tm.active, track)
		stats.Born++
	}

	// 5. Remove tracks that have not been seen for a while (they stay in registry)
	survivors := tm.active[:0]
	for _, track := range tm.active {
		if track.lastSeen > tm.maxFramesBeforeDeath || track.degenerate {
			stats.Pruned++
			continue
		}
		survivors = append(survivors, track)
	}
	for i := len(survivors); i < len(tm.active); i++ {
		tm.active[i] = nil
	}
	tm.active = survivors

	// 6. Register active tracks exactly once
	for _, track := range tm.active {
		if _, ok := tm.registry[track.id]; ok {
			continue
		}
		tm.registry[track.id] = track
		tm.discovered = append(tm.discovered, track)
	}

	stats.Active = len(tm.active)
	tm.logger.Debug("frame processed",
		slog.Int("frame", frameID),
		slog.Int("detections", len(detections)),
		slog.Int("matched", stats.Matched),
		slog.Int("born", stats.Born),
		slog.Int("pruned", stats.Pruned),
		slog.Int("active", stats.Active),
	)
	return stats, nil
}

// Active returns currently active tracks in creation order
func (tm *TrackManager) Active() []*Track {
	out := make([]*Track, len(tm.active))
	copy(out, tm.active)
	return out
}

// Tracks returns every track ever registered, in discovery order
func (tm *TrackManager) Tracks() []*Track {
	out := make([]*Track, len(tm.discovered))
	copy(out, tm.discovered)
	return out
}

// Track returns registered track by id
func (tm *TrackManager) Track(id int) (*Track, bool) {
	track, ok := tm.registry[id]
	return track, ok
}

// TotalCreated returns number of tracks born so far
func (tm *TrackManager) TotalCreated() int {
	return tm.nextID
}

// FilterTracks keeps tracks having at least minLength positions and cumulative distance strictly above minDistance.
// Survivors are sorted by number of positions descending; equal lengths preserve input order.
func FilterTracks(tracks []*Track, minLength int, minDistance float64) []*Track {
	filtered := make([]*Track, 0, len(tracks))
	for _, track := range tracks {
		if track.Len() >= minLength && track.distance > minDistance {
			filtered = append(filtered, track)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Len() > filtered[j].Len()
	})
	return filtered
}
