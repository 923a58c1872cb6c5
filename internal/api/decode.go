package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"nearby-api/internal/proximity"
)

func isAbsent(raw json.RawMessage) bool { return len(bytes.TrimSpace(raw)) == 0 }

func isNull(raw json.RawMessage) bool { return string(bytes.TrimSpace(raw)) == "null" }

// parseStatuses returns the requested statuses, or the default list when
// the field is absent. Anything but a list of strings is rejected.
func parseStatuses(raw json.RawMessage) ([]string, error) {
	if isAbsent(raw) {
		return []string{proximity.DefaultStatus}, nil
	}
	var out []string
	if isNull(raw) || json.Unmarshal(raw, &out) != nil {
		return nil, proximity.ErrStatusesNotList
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// coordText renders a latitude or longitude as text. Absent, null and empty
// values become "", which the core reports as missing.
func coordText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) || isNull(raw) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", proximity.ErrInvalidCoordinates
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", proximity.ErrInvalidCoordinates
	}
	return n.String(), nil
}

func (r nearbyRequest) query() (proximity.Query, error) {
	statuses, err := parseStatuses(r.Statuses)
	if err != nil {
		return proximity.Query{}, err
	}
	lat, err := coordText(r.Latitude)
	if err != nil {
		return proximity.Query{}, err
	}
	lon, err := coordText(r.Longitude)
	if err != nil {
		return proximity.Query{}, err
	}
	return proximity.Query{Latitude: lat, Longitude: lon, Statuses: statuses}, nil
}
