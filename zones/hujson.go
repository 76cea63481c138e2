package zones

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

type zoneJSON struct {
	Center   []float64 `json:"center"`
	Axes     []float64 `json:"axes"`
	Rotation *float64  `json:"rotation"`
}

// ParseHuJSON parses JSON object (comments and trailing commas allowed) keyed by date:
//
//	{
//		// entrance moved after maintenance
//		"20240501": {"center": [412.5, 300], "axes": [220, 90], "rotation": 12.5},
//	}
func ParseHuJSON(data []byte) (map[string]mot.Zone, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidZoneFile, "syntax: %s", err.Error())
	}
	decoder := json.NewDecoder(bytes.NewReader(std))
	decoder.DisallowUnknownFields()
	raw := make(map[string]zoneJSON)
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrapf(ErrInvalidZoneFile, "schema: %s", err.Error())
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrInvalidZoneFile, "unexpected content after top-level object")
	}
	zones := make(map[string]mot.Zone, len(raw))
	for date, entry := range raw {
		if len(entry.Center) != 2 {
			return nil, errors.Wrapf(ErrInvalidZoneFile, "date %s: center must have 2 numbers, got %d", date, len(entry.Center))
		}
		if len(entry.Axes) != 2 {
			return nil, errors.Wrapf(ErrInvalidZoneFile, "date %s: axes must have 2 numbers, got %d", date, len(entry.Axes))
		}
		if entry.Rotation == nil {
			return nil, errors.Wrapf(ErrInvalidZoneFile, "date %s: rotation is missing", date)
		}
		zones[date] = mot.NewZone(mot.NewPoint(entry.Center[0], entry.Center[1]), entry.Axes[0], entry.Axes[1], *entry.Rotation)
	}
	return zones, nil
}
