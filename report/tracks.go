package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
)

// TracksFileSuffix is appended to detections file name to get per-run tracks file
const TracksFileSuffix = ".tracks.csv"

var tracksHeader = []string{"track_id", "direction", "length", "distance", "frames", "positions"}

// TracksFileName returns tracks file name for detections file
func TracksFileName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + TracksFileSuffix
}

// WriteTracks writes surviving tracks into <name>.tracks.csv of output directory
func (w *Writer) WriteTracks(name string, tracks []mot.ClassifiedTrack) error {
	path := filepath.Join(w.dir, TracksFileName(name))
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "can't create '%s'", path)
	}
	cw := csv.NewWriter(file)
	cw.Comma = ';'
	records := make([][]string, 0, len(tracks)+1)
	records = append(records, tracksHeader)
	for _, track := range tracks {
		records = append(records, trackRecord(track))
	}
	if err := cw.WriteAll(records); err != nil {
		file.Close()
		return errors.Wrapf(err, "can't write '%s'", path)
	}
	return errors.Wrapf(file.Close(), "can't close '%s'", path)
}

func trackRecord(track mot.ClassifiedTrack) []string {
	frames := make([]string, 0, track.Len())
	for _, frameID := range track.GetFrameIDs() {
		frames = append(frames, strconv.Itoa(frameID))
	}
	positions := make([]string, 0, track.Len())
	for _, p := range track.GetPositions() {
		positions = append(positions, formatFloat(p.X)+","+formatFloat(p.Y))
	}
	return []string{
		strconv.Itoa(track.GetID()),
		track.Direction.String(),
		strconv.Itoa(track.Len()),
		formatFloat(track.GetDistance()),
		strings.Join(frames, "|"),
		strings.Join(positions, "|"),
	}
}
