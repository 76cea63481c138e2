package mot

import (
	"math"
	"testing"
)

func TestClassifyQuadrant(t *testing.T) {
	zone := NewZone(Point{X: 0, Y: 0}, 20, 10, 0)
	cases := []struct {
		point    Point
		expected Quadrant
	}{
		{Point{X: -3, Y: -2}, QuadrantUpperRight},
		{Point{X: 3, Y: -2}, QuadrantLowerRight},
		{Point{X: -3, Y: 2}, QuadrantUpperLeft},
		{Point{X: 3, Y: 2}, QuadrantLowerLeft},
		{Point{X: 0, Y: 0}, QuadrantUpperRight},
		{Point{X: 10, Y: 0}, QuadrantLowerRight},
		{Point{X: 11, Y: 0}, QuadrantOutside},
		{Point{X: 0, Y: 6}, QuadrantOutside},
		{Point{X: 8, Y: 4}, QuadrantOutside},
		{Point{X: math.NaN(), Y: 0}, QuadrantOutside},
	}
	for _, tc := range cases {
		got := ClassifyQuadrant(tc.point, zone)
		if got != tc.expected {
			t.Errorf("Point (%f, %f): expected %s, got %s", tc.point.X, tc.point.Y, tc.expected, got)
		}
	}
}

func TestClassifyQuadrantRotation(t *testing.T) {
	straight := NewZone(Point{X: 400, Y: 300}, 200, 100, 0)
	rotated := NewZone(Point{X: 400, Y: 300}, 200, 100, 90)

	point := Point{X: 410, Y: 340}
	if got := ClassifyQuadrant(point, straight); got != QuadrantLowerLeft {
		t.Errorf("Expected %s without rotation, got %s", QuadrantLowerLeft, got)
	}
	if got := ClassifyQuadrant(point, rotated); got != QuadrantLowerRight {
		t.Errorf("Expected %s with rotation, got %s", QuadrantLowerRight, got)
	}

	// Along the original minor axis beyond its half-length, but within the major one after rotation
	far := Point{X: 405, Y: 380}
	if got := ClassifyQuadrant(far, straight); got != QuadrantOutside {
		t.Errorf("Expected %s without rotation, got %s", QuadrantOutside, got)
	}
	if got := ClassifyQuadrant(far, rotated); got == QuadrantOutside {
		t.Errorf("Expected point to be inside of rotated zone")
	}
}

func TestClassifyDirection(t *testing.T) {
	zone := NewZone(Point{X: 0, Y: 0}, 20, 10, 0)
	upper := Point{X: -3, Y: 0}
	lower := Point{X: 3, Y: 0}
	outside := Point{X: 50, Y: 50}
	cases := []struct {
		start, end Point
		expected   Direction
	}{
		{upper, upper, DirectionInside},
		{upper, lower, DirectionExit},
		{upper, outside, DirectionExit},
		{lower, upper, DirectionEnter},
		{outside, upper, DirectionEnter},
		{lower, lower, DirectionOutside},
		{outside, outside, DirectionOutside},
		{lower, outside, DirectionOutside},
	}
	for i, tc := range cases {
		got := ClassifyDirection(tc.start, tc.end, zone)
		if got != tc.expected {
			t.Errorf("Case %d: expected '%s', got '%s'", i, tc.expected, got)
		}
	}
}

func TestZoneValidate(t *testing.T) {
	if err := NewZone(Point{X: 1, Y: 1}, 10, 5, 30).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	invalid := []Zone{
		NewZone(Point{X: 1, Y: 1}, 0, 5, 0),
		NewZone(Point{X: 1, Y: 1}, 10, -5, 0),
		NewZone(Point{X: math.Inf(1), Y: 1}, 10, 5, 0),
		NewZone(Point{X: 1, Y: 1}, 10, 5, math.NaN()),
	}
	for i, zone := range invalid {
		if err := zone.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}
}

func TestDirectionRoundTrip(t *testing.T) {
	for _, direction := range []Direction{DirectionNone, DirectionInside, DirectionEnter, DirectionExit, DirectionOutside} {
		parsed, err := ParseDirection(direction.String())
		if err != nil {
			t.Error(err)
			continue
		}
		if parsed != direction {
			t.Errorf("Expected %d, got %d", direction, parsed)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("Expected error for unknown direction")
	}
}

func TestDirectionCounts(t *testing.T) {
	counts := DirectionCounts{}
	for _, direction := range []Direction{DirectionEnter, DirectionEnter, DirectionExit, DirectionNone, DirectionOutside, DirectionInside, DirectionEnter} {
		counts.Add(direction)
	}
	expected := DirectionCounts{Inside: 1, Enter: 3, Exit: 1, Outside: 1}
	if counts != expected {
		t.Errorf("Expected %+v, got %+v", expected, counts)
	}
	if counts.Total() != 6 {
		t.Errorf("Expected total 6, got %d", counts.Total())
	}
}
