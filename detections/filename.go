package detections

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	dateRe = regexp.MustCompile(`\d{8}`)
	// Six digits not being part of a longer digit run
	timeRe = regexp.MustCompile(`(?:^|\D)(\d{6})(?:\D|$)`)
)

// DateFromName extracts date YYYYMMDD from file name: first run of 8 digits
func DateFromName(name string) (string, bool) {
	date := dateRe.FindString(filepath.Base(name))
	return date, date != ""
}

// TimeFromName extracts time HHMMSS from file name: first standalone run of 6 digits
func TimeFromName(name string) (string, bool) {
	match := timeRe.FindStringSubmatch(filepath.Base(name))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Discover lists CSV files of the directory: newest date first, then newest time first, then by name
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read directory '%s'", dir)
	}
	type candidate struct {
		path string
		name string
		date string
		time string
	}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		c := candidate{
			path: filepath.Join(dir, entry.Name()),
			name: entry.Name(),
		}
		c.date, _ = DateFromName(c.name)
		c.time, _ = TimeFromName(c.name)
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.date != b.date {
			return a.date > b.date
		}
		if a.time != b.time {
			return a.time > b.time
		}
		return a.name < b.name
	})
	paths := make([]string, len(candidates))
	for i := range candidates {
		paths[i] = candidates[i].path
	}
	return paths, nil
}
