package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
)

const (
	// StatsTextFile is human-readable per-file report
	StatsTextFile = "track-stats.txt"
	// StatsCSVFile is machine-readable per-file report. It doubles as processed-file ledger
	StatsCSVFile = "track-stats.csv"

	separator = "-------------------------------------------------"
)

// FileStats is a report entry of a single detections file
type FileStats struct {
	Name                 string
	Records              int
	Date                 string
	Start                int
	End                  int
	DistanceThreshold    float64
	MaxFramesBeforeDeath int
	// Number of tracks survived filtering
	TotalTracks int
	Counts      mot.DirectionCounts
	// File could not be tracked: missing columns, too few records, too short
	NoData bool
}

// NoDataStats creates entry for a file without usable detections
func NoDataStats(name string) FileStats {
	return FileStats{Name: name, NoData: true}
}

// NewFileStats creates entry from engine output
func NewFileStats(name string, records int, date string, cfg mot.Config, result *mot.Result) FileStats {
	stats := FileStats{
		Name:                 name,
		Records:              records,
		Date:                 date,
		Start:                result.Start,
		End:                  result.End,
		DistanceThreshold:    cfg.DistanceThreshold,
		MaxFramesBeforeDeath: cfg.MaxFramesBeforeDeath,
		TotalTracks:          len(result.Tracks),
	}
	if result.Counts != nil {
		stats.Counts = *result.Counts
	}
	return stats
}

// Text formats block of track-stats.txt
func (stats FileStats) Text() string {
	var buf bytes.Buffer
	buf.WriteString(separator + "\n")
	if stats.NoData {
		fmt.Fprintf(&buf, "CSV File: %s. No Data Found\n", stats.Name)
		buf.WriteString(separator + "\n")
		return buf.String()
	}
	date := stats.Date
	if date == "" {
		date = "None"
	}
	fmt.Fprintf(&buf, "CSV File: %s. Total Records: %d. Date: %s\n", stats.Name, stats.Records, date)
	fmt.Fprintf(&buf, "Start Frame: %d. End Frame: %d\n", stats.Start, stats.End)
	fmt.Fprintf(&buf, "Distance Threshold: %s. Max Frames Before Death: %d\n", formatFloat(stats.DistanceThreshold), stats.MaxFramesBeforeDeath)
	fmt.Fprintf(&buf, "Total Tracks: %d\n", stats.TotalTracks)
	fmt.Fprintf(&buf, "Enter: %d. Exit: %d. Inside: %d. Outside: %d\n", stats.Counts.Enter, stats.Counts.Exit, stats.Counts.Inside, stats.Counts.Outside)
	buf.WriteString(separator + "\n")
	return buf.String()
}

// CSVRecord formats row of track-stats.csv: name,records,tracks,enter,exit,inside,outside
func (stats FileStats) CSVRecord() []string {
	if stats.NoData {
		return []string{stats.Name, "0", "0", "0", "0", "0", "0"}
	}
	return []string{
		stats.Name,
		strconv.Itoa(stats.Records),
		strconv.Itoa(stats.TotalTracks),
		strconv.Itoa(stats.Counts.Enter),
		strconv.Itoa(stats.Counts.Exit),
		strconv.Itoa(stats.Counts.Inside),
		strconv.Itoa(stats.Counts.Outside),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Writer appends report entries into output directory. Not safe for concurrent use
type Writer struct {
	dir string
}

// NewWriter creates output directory if needed
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "can't create output directory '%s'", dir)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Append writes entry to both text and CSV reports
func (w *Writer) Append(stats FileStats) error {
	if err := appendFile(filepath.Join(w.dir, StatsTextFile), []byte(stats.Text())); err != nil {
		return err
	}
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(stats.CSVRecord()); err != nil {
		return errors.Wrap(err, "can't format stats row")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "can't format stats row")
	}
	return appendFile(filepath.Join(w.dir, StatsCSVFile), buf.Bytes())
}

func appendFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "can't open '%s'", path)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return errors.Wrapf(err, "can't write '%s'", path)
	}
	return errors.Wrapf(file.Close(), "can't close '%s'", path)
}
