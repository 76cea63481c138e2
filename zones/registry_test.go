package zones

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/hive-mot/mot"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hujsonZones = `{
	// entrance camera was moved on May 2nd
	"20240501": {"center": [412.5, 300], "axes": [220, 90], "rotation": 12.5},
	"20240502": {
		"center": [410, 301],
		"axes": [221, 90],
		"rotation": -3, // counter-clockwise
	},
}`

const legacyZones = `{'20240501': ((412.5, 300), (220, 90), 12.5), '20240502': ((410, 301), (221, 90), -3)}
`

func expectedZones() map[string]mot.Zone {
	return map[string]mot.Zone{
		"20240501": mot.NewZone(mot.Point{X: 412.5, Y: 300}, 220, 90, 12.5),
		"20240502": mot.NewZone(mot.Point{X: 410, Y: 301}, 221, 90, -3),
	}
}

func TestParseFormats(t *testing.T) {
	for name, input := range map[string]string{"hujson": hujsonZones, "legacy": legacyZones} {
		t.Run(name, func(t *testing.T) {
			registry, err := Parse([]byte(input))
			require.NoError(t, err)
			assert.Equal(t, []string{"20240501", "20240502"}, registry.Dates())
			got := make(map[string]mot.Zone)
			for _, date := range registry.Dates() {
				zone, err := registry.Lookup(date)
				require.NoError(t, err)
				got[date] = zone
			}
			if diff := cmp.Diff(expectedZones(), got); diff != "" {
				t.Errorf("zones mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookupMissing(t *testing.T) {
	registry, err := Parse([]byte(hujsonZones))
	require.NoError(t, err)
	_, err = registry.Lookup("20240503")
	assert.True(t, errors.Is(err, ErrZoneNotFound))
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":          `{"20240501": {"center": [1, 2], "axes": [3, 4], "rotation": 0, "color": "red"}}`,
		"short center":           `{"20240501": {"center": [1], "axes": [3, 4], "rotation": 0}}`,
		"missing rotation":       `{"20240501": {"center": [1, 2], "axes": [3, 4]}}`,
		"bad date":               `{"20241301": {"center": [1, 2], "axes": [3, 4], "rotation": 0}}`,
		"zero axis":              `{"20240501": {"center": [1, 2], "axes": [0, 4], "rotation": 0}}`,
		"broken json":            `{"20240501": {"center": [1, 2]`,
		"legacy code":            `{'20240501': __import__('os').system('ls')}`,
		"legacy trailing":        `{'20240501': ((1, 2), (3, 4), 0)} + {}`,
		"legacy duplicate":       `{'20240501': ((1, 2), (3, 4), 0), '20240501': ((1, 2), (3, 4), 0)}`,
		"legacy missing element": `{'20240501': ((1, 2), (3, 4))}`,
		"legacy negative axis":   `{'20240501': ((1, 2), (-3, 4), 0)}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidZoneFile), "got %v", err)
		})
	}
}

func TestParseLegacyTrailingCommas(t *testing.T) {
	zones, err := ParseLegacy([]byte("{\n  '20240501': ((1, 2,), (3, 4), 5,),\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, mot.NewZone(mot.Point{X: 1, Y: 2}, 3, 4, 5), zones["20240501"])

	empty, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.hujson")
	require.NoError(t, os.WriteFile(path, []byte(hujsonZones), 0o644))
	registry, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
