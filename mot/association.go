package mot

import (
	"sort"

	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return "unknown"
	}
}

// ParseMatchingAlgorithm is inverse of MatchingAlgorithm.String
func ParseMatchingAlgorithm(s string) (MatchingAlgorithm, error) {
	switch s {
	case "hungarian":
		return MatchingAlgorithmHungarian, nil
	case "greedy":
		return MatchingAlgorithmGreedy, nil
	default:
		return MatchingAlgorithmHungarian, errors.Errorf("unknown matching algorithm '%s'", s)
	}
}

// Match is an accepted (track, detection) pair
type Match struct {
	TrackIdx     int
	DetectionIdx int
	// Euclidean distance between predicted track position and detection
	Cost float64
}

// AssociationResult holds accepted matches (ordered by track index) and indices left unmatched on each side
type AssociationResult struct {
	Matches             []Match
	UnmatchedTracks     []int
	UnmatchedDetections []int
}

// Associator pairs predicted track positions with detections of the current frame
type Associator struct {
	// Pairs with cost greater or equal to threshold are rejected. Default 50.0
	distanceThreshold float64
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// NewAssociatorDefault creates Associator with distance threshold 50 and Hungarian matching
func NewAssociatorDefault() *Associator {
	return &Associator{
		distanceThreshold: 50.0,
		algorithm:         MatchingAlgorithmHungarian,
	}
}

// NewAssociator creates new instance of Associator
func NewAssociator(distanceThreshold float64, algorithm MatchingAlgorithm) *Associator {
	return &Associator{
		distanceThreshold: distanceThreshold,
		algorithm:         algorithm,
	}
}

// CostMatrix returns matrix of Euclidean distances: rows = predicted positions, columns = detections
func CostMatrix(predicted, detections []Point) [][]float64 {
	costs := make([][]float64, len(predicted))
	for i, p := range predicted {
		row := make([]float64, len(detections))
		for j, d := range detections {
			row[j] = euclideanDistance(p, d)
		}
		costs[i] = row
	}
	return costs
}

// Associate solves assignment between predicted positions and detections.
// Proposed pairs are accepted only when cost is strictly below distance threshold.
func (associator *Associator) Associate(predicted, detections []Point) AssociationResult {
	costs := CostMatrix(predicted, detections)
	var proposals [][2]int
	switch associator.algorithm {
	case MatchingAlgorithmGreedy:
		proposals = associator.greedyAssignment(costs, len(predicted), len(detections))
	default:
		proposals = optimalAssignment(costs, len(predicted), len(detections))
	}

	result := AssociationResult{
		Matches: make([]Match, 0, len(proposals)),
	}
	matchedTracks := make(map[int]struct{}, len(proposals))
	matchedDetections := make(map[int]struct{}, len(proposals))
	for _, pair := range proposals {
		cost := costs[pair[0]][pair[1]]
		if cost >= associator.distanceThreshold {
			continue
		}
		result.Matches = append(result.Matches, Match{TrackIdx: pair[0], DetectionIdx: pair[1], Cost: cost})
		matchedTracks[pair[0]] = struct{}{}
		matchedDetections[pair[1]] = struct{}{}
	}
	sort.Slice(result.Matches, func(i, j int) bool {
		return result.Matches[i].TrackIdx < result.Matches[j].TrackIdx
	})
	for i := range predicted {
		if _, ok := matchedTracks[i]; !ok {
			result.UnmatchedTracks = append(result.UnmatchedTracks, i)
		}
	}
	for j := range detections {
		if _, ok := matchedDetections[j]; !ok {
			result.UnmatchedDetections = append(result.UnmatchedDetections, j)
		}
	}
	return result
}

// optimalAssignment returns minimum total cost one-to-one pairing of size min(numTracks, numDetections).
func optimalAssignment(costs [][]float64, numTracks, numDetections int) [][2]int {
	if numTracks == 0 || numDetections == 0 {
		return [][2]int{}
	}
	// Single row or column: optimum is the first minimum
	if numTracks == 1 {
		best := 0
		for j := 1; j < numDetections; j++ {
			if costs[0][j] < costs[0][best] {
				best = j
			}
		}
		return [][2]int{{0, best}}
	}
	if numDetections == 1 {
		best := 0
		for i := 1; i < numTracks; i++ {
			if costs[i][0] < costs[best][0] {
				best = i
			}
		}
		return [][2]int{{best, 0}}
	}

	assignment := hungarianAssign(costs, numTracks, numDetections)
	matches := make([][2]int, 0, minInt(numTracks, numDetections))
	for trackIndex, detectionIndex := range assignment {
		if detectionIndex < 0 {
			continue
		}
		matches = append(matches, [2]int{trackIndex, detectionIndex})
	}
	return matches
}

// greedyAssignment repeatedly takes the cheapest remaining pair below distance threshold
func (associator *Associator) greedyAssignment(costs [][]float64, numTracks, numDetections int) [][2]int {
	matches := make([][2]int, 0)
	if numTracks == 0 || numDetections == 0 {
		return matches
	}
	priorityQueue := make(distanceHeap, 0, numTracks*numDetections)
	for i := 0; i < numTracks; i++ {
		for j := 0; j < numDetections; j++ {
			if costs[i][j] < associator.distanceThreshold {
				priorityQueue.Push(candidatePair{trackIdx: i, detectionIdx: j, distance: costs[i][j]})
			}
		}
	}
	// We need to prevent double assignment on both sides
	reservedTracks := make(map[int]struct{})
	reservedDetections := make(map[int]struct{})
	for priorityQueue.Len() > 0 {
		pair := priorityQueue.Pop()
		if _, ok := reservedTracks[pair.trackIdx]; ok {
			continue
		}
		if _, ok := reservedDetections[pair.detectionIdx]; ok {
			continue
		}
		reservedTracks[pair.trackIdx] = struct{}{}
		reservedDetections[pair.detectionIdx] = struct{}{}
		matches = append(matches, [2]int{pair.trackIdx, pair.detectionIdx})
	}
	return matches
}
