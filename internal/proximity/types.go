// Package proximity ranks permits by travel distance from a query origin.
// Distances come from an external matrix service queried in bounded batches;
// ranked payloads are cached per query fingerprint.
package proximity

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// BatchSize matches the distance service's per-request destination limit.
	BatchSize = 25
	// MaxInFlight caps concurrent distance requests for one query.
	MaxInFlight = 5
	// TopK is the number of ranked results returned per query.
	TopK = 5
	// DefaultStatus is used when a query carries no status list.
	DefaultStatus = "APPROVED"
)

var (
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
	ErrInvalidCoordinates = errors.New("latitude and longitude must be numbers")
	ErrStatusesNotList    = errors.New("statuses must be a list")
)

// Candidate is a permit eligible for ranking. Latitude and Longitude are nil
// when the record store has no coordinates for it.
type Candidate struct {
	LocationID int64    `json:"-"`
	Applicant  string   `json:"applicant"`
	Status     string   `json:"status"`
	Address    string   `json:"address"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Zipcodes   string   `json:"zipcodes"`
}

// Located reports whether both coordinates are present.
func (c Candidate) Located() bool { return c.Latitude != nil && c.Longitude != nil }

// Destination renders the candidate as a "lat,lon" pair for the distance service.
func (c Candidate) Destination() string {
	return strconv.FormatFloat(*c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*c.Longitude, 'f', -1, 64)
}

// RankedResult is a candidate annotated with its travel distance.
type RankedResult struct {
	Candidate
	DistanceKM float64 `json:"distance_km"`

	// position in the candidate list, used to keep ties in input order
	pos int
}

// Query is one proximity request. Latitude and Longitude keep the textual
// form supplied by the caller; the fingerprint is built from that text.
type Query struct {
	Latitude  string
	Longitude string
	Statuses  []string
}

// Origin validates the coordinates and returns the "lat,lon" origin string.
func (q Query) Origin() (string, error) {
	lat := strings.TrimSpace(q.Latitude)
	lon := strings.TrimSpace(q.Longitude)
	if lat == "" || lon == "" {
		return "", ErrMissingCoordinates
	}
	if _, err := strconv.ParseFloat(lat, 64); err != nil {
		return "", ErrInvalidCoordinates
	}
	if _, err := strconv.ParseFloat(lon, 64); err != nil {
		return "", ErrInvalidCoordinates
	}
	return lat + "," + lon, nil
}

// IsInvalidInput reports whether err is a caller validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrMissingCoordinates) ||
		errors.Is(err, ErrInvalidCoordinates) ||
		errors.Is(err, ErrStatusesNotList)
}
