package mot

import (
	"math"

	"github.com/pkg/errors"
)

// Config holds tracking parameters of a single engine run
type Config struct {
	// Process noise covariance scale (Q = ProcessNoise * I). Default 1e-4
	ProcessNoise float64
	// Measurement noise covariance scale (R = MeasurementNoise * I). Default 0.1
	MeasurementNoise float64
	// Max distance between predicted position and detection to be considered a match. Default 50
	DistanceThreshold float64
	// Max number of frames a track can be missing before it leaves active set. Default 20
	MaxFramesBeforeDeath int
	// Min number of matched positions for a track to survive filtering. Default 6
	MinTrackLength int
	// Cumulative distance must be strictly greater than this for a track to survive filtering. Default 100
	MinTrackDistance float64
	// Matching algorithm. Default is Hungarian
	Matching MatchingAlgorithm
	// State estimator for new tracks. Default is constant velocity Kalman filter
	Estimator EstimatorKind
}

// DefaultConfig returns default tracking parameters
func DefaultConfig() Config {
	return Config{
		ProcessNoise:         1e-4,
		MeasurementNoise:     0.1,
		DistanceThreshold:    50.0,
		MaxFramesBeforeDeath: 20,
		MinTrackLength:       6,
		MinTrackDistance:     100.0,
		Matching:             MatchingAlgorithmHungarian,
		Estimator:            EstimatorConstantVelocity,
	}
}

// Validate checks parameters for sanity
func (cfg Config) Validate() error {
	if !positiveFinite(cfg.ProcessNoise) {
		return errors.Errorf("process noise must be positive, got %f", cfg.ProcessNoise)
	}
	if !positiveFinite(cfg.MeasurementNoise) {
		return errors.Errorf("measurement noise must be positive, got %f", cfg.MeasurementNoise)
	}
	if !positiveFinite(cfg.DistanceThreshold) {
		return errors.Errorf("distance threshold must be positive, got %f", cfg.DistanceThreshold)
	}
	if cfg.MaxFramesBeforeDeath < 0 {
		return errors.Errorf("max frames before death can't be negative, got %d", cfg.MaxFramesBeforeDeath)
	}
	if cfg.MinTrackLength < 0 {
		return errors.Errorf("min track length can't be negative, got %d", cfg.MinTrackLength)
	}
	if math.IsNaN(cfg.MinTrackDistance) || math.IsInf(cfg.MinTrackDistance, 0) {
		return errors.Errorf("min track distance must be finite, got %f", cfg.MinTrackDistance)
	}
	switch cfg.Matching {
	case MatchingAlgorithmHungarian, MatchingAlgorithmGreedy:
	default:
		return errors.Errorf("unknown matching algorithm %d", cfg.Matching)
	}
	switch cfg.Estimator {
	case EstimatorConstantVelocity, EstimatorKalman2D:
	default:
		return errors.Errorf("unknown estimator %d", cfg.Estimator)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
