// Package geoip resolves client addresses to approximate coordinates using
// a MaxMind GeoIP2/GeoLite2 City database.
package geoip

import (
	"errors"
	"net"

	"github.com/oschwald/geoip2-golang"

	"nearby-api/internal/logger"
)

var (
	ErrBadIP    = errors.New("geoip: invalid ip")
	ErrNotFound = errors.New("geoip: no location for ip")
)

type Location struct {
	IP        string  `json:"ip"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	// AccuracyKM is the database's accuracy radius.
	AccuracyKM uint16 `json:"accuracy_km,omitempty"`
}

// Locator answers City lookups from an mmdb file opened once at startup.
//
// Constraints: the reader is safe for concurrent use; coordinates are
// approximate and carry the database's accuracy radius.
type Locator struct {
	r *geoip2.Reader
}

func Open(path string) (*Locator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("geoip_open_ok", "path", path, "type", r.Metadata().DatabaseType)
	return &Locator{r: r}, nil
}

func (l *Locator) Close() error { return l.r.Close() }

// Locate looks up ip. Records without coordinates are ErrNotFound.
func (l *Locator) Locate(ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, ErrBadIP
	}
	rec, err := l.r.City(parsed)
	if err != nil {
		return Location{}, err
	}
	return fromCity(ip, rec)
}

func fromCity(ip string, rec *geoip2.City) (Location, error) {
	if rec == nil || (rec.Location.Latitude == 0 && rec.Location.Longitude == 0 && rec.Location.AccuracyRadius == 0) {
		return Location{}, ErrNotFound
	}
	return Location{
		IP:         ip,
		Latitude:   rec.Location.Latitude,
		Longitude:  rec.Location.Longitude,
		City:       rec.City.Names["en"],
		Country:    rec.Country.IsoCode,
		AccuracyKM: rec.Location.AccuracyRadius,
	}, nil
}
