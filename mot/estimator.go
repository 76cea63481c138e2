package mot

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	stateDim       = 4
	measurementDim = 2
	// Initial covariance scale: no confidence in the zero initial velocity
	initialCovarianceScale = 1000.0
)

// ErrDegenerateEstimate is returned when the filter can't produce a finite, well-posed estimate
var ErrDegenerateEstimate = errors.New("degenerate state estimate")

// StateEstimator predicts and corrects a single track's 2D position
type StateEstimator interface {
	// Predict advances the state by one frame
	Predict()
	// Update corrects the state with a measured position
	Update(measurement Point) error
	// Position returns current (predicted or corrected) position
	Position() Point
}

// EstimatorKind selects StateEstimator implementation used for new tracks
type EstimatorKind uint16

const (
	// EstimatorConstantVelocity is linear constant-velocity Kalman filter over [x, y, vx, vy]
	EstimatorConstantVelocity EstimatorKind = iota
	// EstimatorKalman2D uses github.com/LdDl/kalman-filter with acceleration-driven process noise
	EstimatorKalman2D
)

func (kind EstimatorKind) String() string {
	switch kind {
	case EstimatorConstantVelocity:
		return "constant-velocity"
	case EstimatorKalman2D:
		return "kalman2d"
	default:
		return "unknown"
	}
}

// ParseEstimatorKind is inverse of EstimatorKind.String
func ParseEstimatorKind(s string) (EstimatorKind, error) {
	switch s {
	case "constant-velocity":
		return EstimatorConstantVelocity, nil
	case "kalman2d":
		return EstimatorKalman2D, nil
	default:
		return EstimatorConstantVelocity, errors.Errorf("unknown estimator '%s'", s)
	}
}

// ConstantVelocityFilter is a linear Kalman filter with state [x, y, vx, vy] and
// measurement [x, y]. Unit time step between frames.
type ConstantVelocityFilter struct {
	x *mat.VecDense
	p *mat.SymDense
	f *mat.Dense
	h *mat.Dense
	q *mat.SymDense
	r *mat.SymDense
}

// NewConstantVelocityFilter creates filter positioned at initial with zero velocity.
// Process noise covariance is processNoise*I, measurement noise covariance is measurementNoise*I.
func NewConstantVelocityFilter(initial Point, processNoise, measurementNoise float64) *ConstantVelocityFilter {
	return &ConstantVelocityFilter{
		x: mat.NewVecDense(stateDim, []float64{initial.X, initial.Y, 0, 0}),
		p: scaledIdentity(stateDim, initialCovarianceScale),
		f: mat.NewDense(stateDim, stateDim, []float64{
			1, 0, 1, 0,
			0, 1, 0, 1,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}),
		h: mat.NewDense(measurementDim, stateDim, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		q: scaledIdentity(stateDim, processNoise),
		r: scaledIdentity(measurementDim, measurementNoise),
	}
}

// Predict executes x = F*x, P = F*P*F' + Q
func (kf *ConstantVelocityFilter) Predict() {
	var fx mat.VecDense
	fx.MulVec(kf.f, kf.x)
	kf.x = &fx

	var fp, fpf mat.Dense
	fp.Mul(kf.f, kf.p)
	fpf.Mul(&fp, kf.f.T())
	fpf.Add(&fpf, kf.q)
	kf.p = symmetrize(&fpf)
}

// Update corrects state with measurement z using the Joseph form of covariance update
func (kf *ConstantVelocityFilter) Update(z Point) error {
	if !z.IsFinite() {
		return errors.Wrapf(ErrDegenerateEstimate, "non-finite measurement (%f, %f)", z.X, z.Y)
	}

	// Innovation y = z - H*x
	var hx mat.VecDense
	hx.MulVec(kf.h, kf.x)
	y := mat.NewVecDense(measurementDim, []float64{z.X - hx.AtVec(0), z.Y - hx.AtVec(1)})

	// S = H*P*H' + R
	var hp, s mat.Dense
	hp.Mul(kf.h, kf.p)
	s.Mul(&hp, kf.h.T())
	s.Add(&s, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return errors.Wrap(ErrDegenerateEstimate, err.Error())
	}

	// K = P*H'*S^-1
	var pht, k mat.Dense
	pht.Mul(kf.p, kf.h.T())
	k.Mul(&pht, &sInv)

	var ky mat.VecDense
	ky.MulVec(&k, y)
	var newX mat.VecDense
	newX.AddVec(kf.x, &ky)

	// P = (I - K*H)*P*(I - K*H)' + K*R*K'
	var kh, ikh mat.Dense
	kh.Mul(&k, kf.h)
	ikh.Sub(scaledIdentity(stateDim, 1.0), &kh)
	var ikhp, joseph mat.Dense
	ikhp.Mul(&ikh, kf.p)
	joseph.Mul(&ikhp, ikh.T())
	var kr, krk mat.Dense
	kr.Mul(&k, kf.r)
	krk.Mul(&kr, k.T())
	joseph.Add(&joseph, &krk)

	if !finiteVector(&newX) || !finiteMatrix(&joseph) {
		return errors.Wrap(ErrDegenerateEstimate, "non-finite state after correction")
	}
	kf.x = &newX
	kf.p = symmetrize(&joseph)
	return nil
}

// Position returns [x, y] part of the state
func (kf *ConstantVelocityFilter) Position() Point {
	return Point{X: kf.x.AtVec(0), Y: kf.x.AtVec(1)}
}

// State returns copy of the state vector [x, y, vx, vy]
func (kf *ConstantVelocityFilter) State() [4]float64 {
	return [4]float64{kf.x.AtVec(0), kf.x.AtVec(1), kf.x.AtVec(2), kf.x.AtVec(3)}
}

// Covariance returns copy of the state covariance
func (kf *ConstantVelocityFilter) Covariance() *mat.SymDense {
	cov := mat.NewSymDense(stateDim, nil)
	cov.CopySym(kf.p)
	return cov
}

func scaledIdentity(n int, scale float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, scale)
	}
	return m
}

// symmetrize returns (A + A')/2 for square A
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}

func finiteVector(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		if math.IsNaN(v.AtVec(i)) || math.IsInf(v.AtVec(i), 0) {
			return false
		}
	}
	return true
}

func finiteMatrix(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(m.At(i, j)) || math.IsInf(m.At(i, j), 0) {
				return false
			}
		}
	}
	return true
}
