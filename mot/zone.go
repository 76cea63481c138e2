package mot

import (
	"math"

	"github.com/pkg/errors"
)

// Zone is a rotated ellipse (e.g. hive entrance) in image coordinates
type Zone struct {
	Center Point
	// Full lengths of the ellipse axes before rotation
	Axes [2]float64
	// Rotation in degrees
	Rotation float64
}

// NewZone creates zone from center, full axes lengths and rotation in degrees
func NewZone(center Point, axisX, axisY, rotation float64) Zone {
	return Zone{
		Center:   center,
		Axes:     [2]float64{axisX, axisY},
		Rotation: rotation,
	}
}

// Validate checks that zone is a proper ellipse
func (zone Zone) Validate() error {
	if !zone.Center.IsFinite() {
		return errors.Errorf("zone center must be finite, got (%f, %f)", zone.Center.X, zone.Center.Y)
	}
	for i, axis := range zone.Axes {
		if math.IsNaN(axis) || math.IsInf(axis, 0) || axis <= 0 {
			return errors.Errorf("zone axis %d must be positive and finite, got %f", i, axis)
		}
	}
	if math.IsNaN(zone.Rotation) || math.IsInf(zone.Rotation, 0) {
		return errors.Errorf("zone rotation must be finite, got %f", zone.Rotation)
	}
	return nil
}

// Quadrant is a position of a point relative to a zone
type Quadrant uint16

const (
	QuadrantOutside Quadrant = iota
	QuadrantUpperLeft
	QuadrantUpperRight
	QuadrantLowerLeft
	QuadrantLowerRight
)

func (quadrant Quadrant) String() string {
	switch quadrant {
	case QuadrantUpperLeft:
		return "upper-left"
	case QuadrantUpperRight:
		return "upper-right"
	case QuadrantLowerLeft:
		return "lower-left"
	case QuadrantLowerRight:
		return "lower-right"
	default:
		return "outside"
	}
}

// IsUpper reports whether quadrant belongs to the upper half of the zone, which counts as "inside"
func (quadrant Quadrant) IsUpper() bool {
	return quadrant == QuadrantUpperLeft || quadrant == QuadrantUpperRight
}

// Direction is a net movement of a track relative to a zone
type Direction uint16

const (
	// DirectionNone means no zone was available for classification
	DirectionNone Direction = iota
	DirectionInside
	DirectionEnter
	DirectionExit
	DirectionOutside
)

func (direction Direction) String() string {
	switch direction {
	case DirectionInside:
		return "inside"
	case DirectionEnter:
		return "enter"
	case DirectionExit:
		return "exit"
	case DirectionOutside:
		return "outside"
	default:
		return ""
	}
}

// ParseDirection is inverse of Direction.String
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "inside":
		return DirectionInside, nil
	case "enter":
		return DirectionEnter, nil
	case "exit":
		return DirectionExit, nil
	case "outside":
		return DirectionOutside, nil
	case "":
		return DirectionNone, nil
	default:
		return DirectionNone, errors.Errorf("unknown direction '%s'", s)
	}
}

// ClassifyQuadrant determines the quadrant of a point relative to the rotated ellipse.
// The point is translated to zone center and rotated by -Rotation to align with ellipse axes.
// Quadrant naming for the rotated coordinates is:
//
//	y <= 0, x <= 0: upper-right
//	y <= 0, x >= 0: lower-right
//	y >= 0, x <= 0: upper-left
//	y >= 0, x >= 0: lower-left
//
// It looks mirrored relative to math axes; it is kept as is until confirmed against calibration data.
func ClassifyQuadrant(point Point, zone Zone) Quadrant {
	a := zone.Axes[0] / 2.0
	b := zone.Axes[1] / 2.0
	theta := zone.Rotation * math.Pi / 180.0

	xp := point.X - zone.Center.X
	yp := point.Y - zone.Center.Y

	sinT, cosT := math.Sincos(-theta)
	xRot := xp*cosT - yp*sinT
	yRot := xp*sinT + yp*cosT

	// Written as negation so that NaN (zero-length axis) is outside
	if !((xRot*xRot)/(a*a)+(yRot*yRot)/(b*b) <= 1) {
		return QuadrantOutside
	}
	switch {
	case yRot <= 0 && xRot <= 0:
		return QuadrantUpperRight
	case yRot <= 0 && xRot >= 0:
		return QuadrantLowerRight
	case yRot >= 0 && xRot <= 0:
		return QuadrantUpperLeft
	case yRot >= 0 && xRot >= 0:
		return QuadrantLowerLeft
	}
	return QuadrantOutside
}

// ClassifyDirection compares start and end positions: upper half of the zone is "inside"
func ClassifyDirection(start, end Point, zone Zone) Direction {
	startInside := ClassifyQuadrant(start, zone).IsUpper()
	endInside := ClassifyQuadrant(end, zone).IsUpper()
	switch {
	case startInside && endInside:
		return DirectionInside
	case startInside && !endInside:
		return DirectionExit
	case !startInside && endInside:
		return DirectionEnter
	default:
		return DirectionOutside
	}
}

// DirectionCounts is number of tracks per direction
type DirectionCounts struct {
	Inside  int
	Enter   int
	Exit    int
	Outside int
}

// Add increments counter for direction. DirectionNone is ignored
func (counts *DirectionCounts) Add(direction Direction) {
	switch direction {
	case DirectionInside:
		counts.Inside++
	case DirectionEnter:
		counts.Enter++
	case DirectionExit:
		counts.Exit++
	case DirectionOutside:
		counts.Outside++
	}
}

// Total returns sum of all counters
func (counts DirectionCounts) Total() int {
	return counts.Inside + counts.Enter + counts.Exit + counts.Outside
}
