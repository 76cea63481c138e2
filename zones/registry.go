package zones

import (
	"os"
	"sort"
	"time"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
)

// DateLayout is layout of registry keys
const DateLayout = "20060102"

var (
	// ErrZoneNotFound is returned when registry has no zone for the date
	ErrZoneNotFound = errors.New("zone not found")
	// ErrInvalidZoneFile is a root of every parsing and validation error
	ErrInvalidZoneFile = errors.New("invalid zone file")
)

// Registry maps dates (YYYYMMDD) to hive entrance zones
type Registry struct {
	zones map[string]mot.Zone
}

// NewRegistry validates zones and creates registry
func NewRegistry(zones map[string]mot.Zone) (*Registry, error) {
	registry := &Registry{
		zones: make(map[string]mot.Zone, len(zones)),
	}
	for date, zone := range zones {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, errors.Wrapf(ErrInvalidZoneFile, "key '%s' is not a valid YYYYMMDD date", date)
		}
		if err := zone.Validate(); err != nil {
			return nil, errors.Wrapf(ErrInvalidZoneFile, "date %s: %s", date, err.Error())
		}
		registry.zones[date] = zone
	}
	return registry, nil
}

// Load reads zone file. Both HuJSON and legacy tuple-literal formats are accepted
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read zone file '%s'", path)
	}
	registry, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "zone file '%s'", path)
	}
	return registry, nil
}

// Parse detects format of the data and parses it
func Parse(data []byte) (*Registry, error) {
	if isLegacy(data) {
		zones, err := ParseLegacy(data)
		if err != nil {
			return nil, err
		}
		return NewRegistry(zones)
	}
	zones, err := ParseHuJSON(data)
	if err != nil {
		return nil, err
	}
	return NewRegistry(zones)
}

// Lookup returns zone for the date
func (registry *Registry) Lookup(date string) (mot.Zone, error) {
	zone, ok := registry.zones[date]
	if !ok {
		return mot.Zone{}, errors.Wrapf(ErrZoneNotFound, "date %s", date)
	}
	return zone, nil
}

// Dates returns known dates, ascending
func (registry *Registry) Dates() []string {
	dates := make([]string, 0, len(registry.zones))
	for date := range registry.zones {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Len returns number of zones
func (registry *Registry) Len() int {
	return len(registry.zones)
}
