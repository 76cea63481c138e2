package mot

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Kalman2DFilter wraps kalman_filter.Kalman2D as a StateEstimator.
// Process noise is driven by acceleration deviation sqrt(processNoise),
// measurement deviations are sqrt(measurementNoise) for both axes.
type Kalman2DFilter struct {
	tracker  *kalman_filter.Kalman2D
	position Point
}

func NewKalman2DFilter(initial Point, processNoise, measurementNoise float64) *Kalman2DFilter {
	/* Kalman filter props */
	dt := 1.0
	ux := 0.0
	uy := 0.0
	stdDevA := math.Sqrt(processNoise)
	stdDevMx := math.Sqrt(measurementNoise)
	stdDevMy := math.Sqrt(measurementNoise)
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(initial.X, initial.Y))
	return &Kalman2DFilter{
		tracker:  kf,
		position: initial,
	}
}

// Predict executes Kalman filter's first step
func (kf *Kalman2DFilter) Predict() {
	kf.tracker.Predict()
	stateX, stateY := kf.tracker.GetState()
	kf.position = Point{X: stateX, Y: stateY}
}

// Update executes Kalman filter's second step (evaluate state vector based on Kalman gain)
func (kf *Kalman2DFilter) Update(z Point) error {
	if !z.IsFinite() {
		return errors.Wrapf(ErrDegenerateEstimate, "non-finite measurement (%f, %f)", z.X, z.Y)
	}
	err := kf.tracker.Update(z.X, z.Y)
	if err != nil {
		return errors.Wrap(ErrDegenerateEstimate, err.Error())
	}
	stateX, stateY := kf.tracker.GetState()
	corrected := Point{X: stateX, Y: stateY}
	if !corrected.IsFinite() {
		return errors.Wrap(ErrDegenerateEstimate, "non-finite state after correction")
	}
	kf.position = corrected
	return nil
}

// Position returns last predicted or corrected position
func (kf *Kalman2DFilter) Position() Point {
	return kf.position
}

// estimatorFactory returns constructor of estimators for newborn tracks
func estimatorFactory(kind EstimatorKind, processNoise, measurementNoise float64) func(Point) StateEstimator {
	switch kind {
	case EstimatorKalman2D:
		return func(initial Point) StateEstimator {
			return NewKalman2DFilter(initial, processNoise, measurementNoise)
		}
	default:
		return func(initial Point) StateEstimator {
			return NewConstantVelocityFilter(initial, processNoise, measurementNoise)
		}
	}
}
