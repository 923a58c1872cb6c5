package api

import (
	"context"
	"encoding/json"

	"nearby-api/internal/geoip"
	"nearby-api/internal/proximity"
	"nearby-api/internal/stats"
)

type NearbyService interface {
	Nearby(ctx context.Context, q proximity.Query) ([]proximity.RankedResult, error)
}

type ApplicantSearcher interface {
	SearchApplicant(ctx context.Context, applicant, address string, statuses []string) ([]proximity.Candidate, error)
}

type StatsRecorder interface {
	Record(ctx context.Context, visitor string) error
	Totals(ctx context.Context) (stats.Totals, error)
	Enabled() bool
}

type Locator interface {
	Locate(ip string) (geoip.Location, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// nearbyRequest keeps the raw values so that numbers and numeric strings
// are both accepted for coordinates and a non-list statuses value can be
// told apart from an absent one.
type nearbyRequest struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
	Statuses  json.RawMessage `json:"statuses"`
}

type applicantRequest struct {
	Applicant string          `json:"applicant"`
	Address   string          `json:"address"`
	Statuses  json.RawMessage `json:"statuses"`
}

type statsResponse struct {
	Enabled bool `json:"enabled"`
	stats.Totals
}
