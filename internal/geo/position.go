package geo

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidPosition is returned for position reports that cannot be applied.
var ErrInvalidPosition = errors.New("invalid position")

// ParsePosition decodes a browser position report: {"lat":..,"lng":..}, or
// null when the device position is unavailable (nil, nil).
func ParsePosition(raw []byte) (*Coordinate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var p struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Join(ErrInvalidPosition, err)
	}
	if p.Lat == nil || p.Lng == nil {
		return nil, errors.Join(ErrInvalidPosition, errors.New("lat and lng are required"))
	}
	if *p.Lat < -90 || *p.Lat > 90 || *p.Lng < -180 || *p.Lng > 180 {
		return nil, errors.Join(ErrInvalidPosition, errors.New("out of range"))
	}
	return &Coordinate{Longitude: *p.Lng, Latitude: *p.Lat}, nil
}
