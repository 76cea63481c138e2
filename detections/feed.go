package detections

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
)

const (
	ColumnCenterX = "center_x"
	ColumnCenterY = "center_y"
	ColumnFrameID = "video_frame_id"

	// MinRecords is min number of detections in a file to be tracked
	MinRecords = 5
	// MinFrameSpan is min difference between last and first frame ids
	MinFrameSpan = 5
)

var (
	// ErrInvalidInput is a root of every error caused by file contents
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingColumns means one of required columns is absent
	ErrMissingColumns = errors.Wrap(ErrInvalidInput, "missing required columns")
	// ErrTooFewRecords means there are fewer than MinRecords detections
	ErrTooFewRecords = errors.Wrap(ErrInvalidInput, "too few records")
	// ErrShortFrameRange means frames span less than MinFrameSpan
	ErrShortFrameRange = errors.Wrap(ErrInvalidInput, "frame range is too short")
	// ErrMalformedRecord means a value can't be parsed as a number
	ErrMalformedRecord = errors.Wrap(ErrInvalidInput, "malformed record")
)

// Feed is a set of detections grouped by frame. It implements mot.FrameSource
type Feed struct {
	name    string
	records int
	start   int
	end     int
	frames  map[int][]mot.Point
}

// Load reads and validates detections file
func Load(path string) (*Feed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open detections file '%s'", path)
	}
	defer file.Close()
	feed, err := Parse(file)
	if err != nil {
		return nil, errors.Wrapf(err, "file '%s'", path)
	}
	feed.name = filepath.Base(path)
	return feed, nil
}

// Parse reads detections CSV with header. Column names are trimmed, extra columns are ignored.
func Parse(r io.Reader) (*Feed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrMissingColumns, "empty file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't read header")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}
	missing := []string{}
	for _, name := range []string{ColumnCenterX, ColumnCenterY, ColumnFrameID} {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingColumns, "%s", strings.Join(missing, ", "))
	}
	xIdx, yIdx, frameIdx := columns[ColumnCenterX], columns[ColumnCenterY], columns[ColumnFrameID]

	feed := &Feed{
		frames: make(map[int][]mot.Point),
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "can't read line %d", line)
		}
		x, err := parseCoordinate(record, xIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d, column %s", line, ColumnCenterX)
		}
		y, err := parseCoordinate(record, yIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d, column %s", line, ColumnCenterY)
		}
		frameID, err := parseFrameID(record, frameIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d, column %s", line, ColumnFrameID)
		}
		if feed.records == 0 || frameID < feed.start {
			feed.start = frameID
		}
		if feed.records == 0 || frameID > feed.end {
			feed.end = frameID
		}
		feed.frames[frameID] = append(feed.frames[frameID], mot.NewPoint(x, y))
		feed.records++
	}

	if feed.records < MinRecords {
		return nil, errors.Wrapf(ErrTooFewRecords, "got %d, need at least %d", feed.records, MinRecords)
	}
	if feed.end-feed.start < MinFrameSpan {
		return nil, errors.Wrapf(ErrShortFrameRange, "frames [%d, %d]", feed.start, feed.end)
	}
	return feed, nil
}

func field(record []string, idx int) (string, error) {
	if idx >= len(record) {
		return "", errors.Wrap(ErrMalformedRecord, "value is missing")
	}
	return strings.TrimSpace(record[idx]), nil
}

func parseCoordinate(record []string, idx int) (float64, error) {
	s, err := field(record, idx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrMalformedRecord, "bad coordinate '%s'", s)
	}
	return v, nil
}

// parseFrameID accepts both integer and integral float text (e.g. "12" and "12.0")
func parseFrameID(record []string, idx int) (int, error) {
	s, err := field(record, idx)
	if err != nil {
		return 0, err
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, errors.Wrapf(ErrMalformedRecord, "bad frame id '%s'", s)
	}
	return int(v), nil
}

// Name returns base name of the source file (empty when parsed from reader)
func (feed *Feed) Name() string {
	return feed.name
}

// Len returns number of detections
func (feed *Feed) Len() int {
	return feed.records
}

// Start returns first frame id
func (feed *Feed) Start() int {
	return feed.start
}

// End returns last frame id
func (feed *Feed) End() int {
	return feed.end
}

// Frames returns frame ids having at least one detection, ascending
func (feed *Feed) Frames() []int {
	ids := make([]int, 0, len(feed.frames))
	for id := range feed.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Detections returns detections of the frame in file order
func (feed *Feed) Detections(frameID int) []mot.Point {
	return feed.frames[frameID]
}
