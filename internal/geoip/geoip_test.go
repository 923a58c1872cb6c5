package geoip

import (
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCity(t *testing.T) {
	var rec geoip2.City
	rec.Location.Latitude = 37.7749
	rec.Location.Longitude = -122.4194
	rec.Location.AccuracyRadius = 20
	rec.City.Names = map[string]string{"en": "San Francisco"}
	rec.Country.IsoCode = "US"

	loc, err := fromCity("8.8.8.8", &rec)
	require.NoError(t, err)
	assert.Equal(t, Location{IP: "8.8.8.8", Latitude: 37.7749, Longitude: -122.4194, City: "San Francisco", Country: "US", AccuracyKM: 20}, loc)
}

func TestFromCityEmptyRecord(t *testing.T) {
	_, err := fromCity("10.0.0.1", &geoip2.City{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

func TestLocateBadIP(t *testing.T) {
	l := &Locator{}
	_, err := l.Locate("not-an-ip")
	assert.ErrorIs(t, err, ErrBadIP)
}
