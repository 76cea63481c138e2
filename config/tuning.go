package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

const maxTuningFileSize = 1 << 20

// Tuning holds optional overrides of tracking parameters. Omitted fields keep defaults,
// so partial files are safe.
type Tuning struct {
	ProcessNoise         *float64 `json:"process_noise,omitempty"`
	MeasurementNoise     *float64 `json:"measurement_noise,omitempty"`
	DistanceThreshold    *float64 `json:"distance_threshold,omitempty"`
	MaxFramesBeforeDeath *int     `json:"max_frames_before_death,omitempty"`
	MinTrackLength       *int     `json:"min_track_length,omitempty"`
	MinTrackDistance     *float64 `json:"min_track_distance,omitempty"`
	// "hungarian" or "greedy"
	Matching *string `json:"matching,omitempty"`
	// "constant-velocity" or "kalman2d"
	Estimator *string `json:"estimator,omitempty"`
}

// LoadTuning reads tuning file (.json or .hujson; comments and trailing commas are allowed)
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json", ".hujson":
	default:
		return nil, errors.Errorf("tuning file must have .json or .hujson extension, got '%s'", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't stat tuning file")
	}
	if info.Size() > maxTuningFileSize {
		return nil, errors.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxTuningFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't read tuning file")
	}
	tuning, err := ParseTuning(data)
	if err != nil {
		return nil, errors.Wrapf(err, "tuning file '%s'", cleanPath)
	}
	return tuning, nil
}

// ParseTuning parses and validates tuning JSON. Unknown fields are rejected
func ParseTuning(data []byte) (*Tuning, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse tuning")
	}
	decoder := json.NewDecoder(bytes.NewReader(std))
	decoder.DisallowUnknownFields()
	tuning := &Tuning{}
	if err := decoder.Decode(tuning); err != nil {
		return nil, errors.Wrap(err, "can't decode tuning")
	}
	if _, err := tuning.Apply(mot.DefaultConfig()); err != nil {
		return nil, err
	}
	return tuning, nil
}

// Apply overlays set fields on cfg and validates the result
func (tuning *Tuning) Apply(cfg mot.Config) (mot.Config, error) {
	if tuning == nil {
		return cfg, cfg.Validate()
	}
	if tuning.ProcessNoise != nil {
		cfg.ProcessNoise = *tuning.ProcessNoise
	}
	if tuning.MeasurementNoise != nil {
		cfg.MeasurementNoise = *tuning.MeasurementNoise
	}
	if tuning.DistanceThreshold != nil {
		cfg.DistanceThreshold = *tuning.DistanceThreshold
	}
	if tuning.MaxFramesBeforeDeath != nil {
		cfg.MaxFramesBeforeDeath = *tuning.MaxFramesBeforeDeath
	}
	if tuning.MinTrackLength != nil {
		cfg.MinTrackLength = *tuning.MinTrackLength
	}
	if tuning.MinTrackDistance != nil {
		cfg.MinTrackDistance = *tuning.MinTrackDistance
	}
	if tuning.Matching != nil {
		matching, err := mot.ParseMatchingAlgorithm(*tuning.Matching)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid tuning")
		}
		cfg.Matching = matching
	}
	if tuning.Estimator != nil {
		estimator, err := mot.ParseEstimatorKind(*tuning.Estimator)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid tuning")
		}
		cfg.Estimator = estimator
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid tuning")
	}
	return cfg, nil
}
