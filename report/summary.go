package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	fileLineRe    = regexp.MustCompile(`CSV File: (\d{8})_(\d{6})\.csv`)
	totalTracksRe = regexp.MustCompile(`Total Tracks: (\d+)`)
	enterRe       = regexp.MustCompile(`Enter: (\d+)`)
	exitRe        = regexp.MustCompile(`Exit: (\d+)`)
	insideRe      = regexp.MustCompile(`Inside: (\d+)`)
	outsideRe     = regexp.MustCompile(`Outside: (\d+)`)
)

// SlotCounts is tracking summary of a single file
type SlotCounts struct {
	Total   int
	Enter   int
	Exit    int
	Inside  int
	Outside int
}

// Summary maps date (YYYYMMDD) to time slot label (e.g. "6:10 AM") to counts
type Summary map[string]map[string]SlotCounts

// Dates returns dates of summary, ascending
func (summary Summary) Dates() []string {
	dates := make([]string, 0, len(summary))
	for date := range summary {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// LoadSummary parses track-stats.txt file
func LoadSummary(path string) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open report '%s'", path)
	}
	defer file.Close()
	return ParseSummary(file)
}

type pendingEntry struct {
	date, slot                          string
	total, enter, exit, inside, outside *int
}

func (entry *pendingEntry) complete() bool {
	return entry.total != nil && entry.enter != nil && entry.exit != nil && entry.inside != nil && entry.outside != nil
}

// ParseSummary reads blocks of track-stats.txt. Only files named YYYYMMDD_HHMMSS.csv are considered,
// no-data blocks are skipped. A later block for the same slot replaces an earlier one.
func ParseSummary(r io.Reader) (Summary, error) {
	summary := make(Summary)
	var current *pendingEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if match := fileLineRe.FindStringSubmatch(line); match != nil {
			current = nil
			if !strings.Contains(line, "No Data Found") {
				slot, err := FormatTimeSlot(match[2])
				if err != nil {
					return nil, errors.Wrapf(err, "line '%s'", line)
				}
				current = &pendingEntry{date: match[1], slot: slot}
			}
			continue
		}
		if current == nil {
			continue
		}
		captureInt(totalTracksRe, line, &current.total)
		captureInt(enterRe, line, &current.enter)
		captureInt(exitRe, line, &current.exit)
		captureInt(insideRe, line, &current.inside)
		captureInt(outsideRe, line, &current.outside)
		if current.complete() {
			if _, ok := summary[current.date]; !ok {
				summary[current.date] = make(map[string]SlotCounts)
			}
			summary[current.date][current.slot] = SlotCounts{
				Total:   *current.total,
				Enter:   *current.enter,
				Exit:    *current.exit,
				Inside:  *current.inside,
				Outside: *current.outside,
			}
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "can't read report")
	}
	return summary, nil
}

func captureInt(re *regexp.Regexp, line string, dst **int) {
	match := re.FindStringSubmatch(line)
	if match == nil {
		return
	}
	v, err := strconv.Atoi(match[1])
	if err != nil {
		return
	}
	*dst = &v
}

// FormatTimeSlot converts HHMMSS into 12-hour label rounded to 10 minutes: "063400" -> "6:30 AM".
// Halves are rounded to even tens ("061500" -> "6:20 AM", "062500" -> "6:20 AM"), 60 minutes carry into the next hour.
func FormatTimeSlot(hhmmss string) (string, error) {
	if len(hhmmss) < 4 {
		return "", errors.Errorf("bad time '%s'", hhmmss)
	}
	hour, err := strconv.Atoi(hhmmss[:2])
	if err != nil || hour < 0 || hour > 23 {
		return "", errors.Errorf("bad hour in '%s'", hhmmss)
	}
	minute, err := strconv.Atoi(hhmmss[2:4])
	if err != nil || minute < 0 || minute > 59 {
		return "", errors.Errorf("bad minute in '%s'", hhmmss)
	}
	return slotLabel(hour, int(math.RoundToEven(float64(minute)/10.0))*10), nil
}

func slotLabel(hour, minute int) string {
	if minute >= 60 {
		hour += minute / 60
		minute %= 60
	}
	hour %= 24
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minute, ampm)
}
