package mot

// Track is a hypothesized single moving object: its state estimator and match history
type Track struct {
	id         int
	estimator  StateEstimator
	lastSeen   int
	positions  []Point
	frameIDs   []int
	distance   float64
	degenerate bool
}

func newTrack(id int, frameID int, detection Point, estimator StateEstimator) *Track {
	return &Track{
		id:        id,
		estimator: estimator,
		lastSeen:  0,
		positions: []Point{detection},
		frameIDs:  []int{frameID},
		distance:  0,
	}
}

// GetID returns track's identifier
func (track *Track) GetID() int {
	return track.id
}

// GetLastSeen returns number of frames elapsed since last successful match
func (track *Track) GetLastSeen() int {
	return track.lastSeen
}

// GetPositions returns matched detection coordinates, oldest first. Be careful: this is not copy, but reference
func (track *Track) GetPositions() []Point {
	return track.positions
}

// GetFrameIDs returns frame index of each match, same length as positions. Be careful: this is not copy, but reference
func (track *Track) GetFrameIDs() []int {
	return track.frameIDs
}

// GetDistance returns cumulative distance: sum of residuals of every match
func (track *Track) GetDistance() float64 {
	return track.distance
}

// Len returns number of matched positions
func (track *Track) Len() int {
	return len(track.positions)
}

// GetPredictedPosition returns estimator's current position
func (track *Track) GetPredictedPosition() Point {
	return track.estimator.Position()
}

// IsDegenerate reports whether the estimator failed and track was excluded from further updates
func (track *Track) IsDegenerate() bool {
	return track.degenerate
}

// First returns oldest matched position
func (track *Track) First() Point {
	return track.positions[0]
}

// Last returns latest matched position
func (track *Track) Last() Point {
	return track.positions[len(track.positions)-1]
}

func (track *Track) predict() {
	track.estimator.Predict()
	track.lastSeen++
}

// update corrects estimator and records the match. On estimator failure track is left unchanged but flagged.
func (track *Track) update(frameID int, detection Point, cost float64) error {
	err := track.estimator.Update(detection)
	if err != nil {
		track.degenerate = true
		return err
	}
	track.lastSeen = 0
	track.positions = append(track.positions, detection)
	track.frameIDs = append(track.frameIDs, frameID)
	track.distance += cost
	return nil
}
