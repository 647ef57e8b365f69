package airquality

import (
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
)

// knownPlaces resolves the places the dashboard cares about without a
// network round-trip.
var knownPlaces = map[string]Coordinates{
	"delhi":     {Lat: 28.6139, Lon: 77.2090},
	"new delhi": {Lat: 28.6139, Lon: 77.2090},
	"gurugram":  {Lat: 28.4595, Lon: 77.0266},
	"noida":     {Lat: 28.5355, Lon: 77.3910},
}

// Resolver turns a city name into coordinates for the coordinate-based
// providers. Known places resolve from the static table; anything else goes
// through the Google geocoding API when a key is configured.
type Resolver struct {
	apiKey string
}

// NewResolver creates a Resolver. googleAPIKey may be empty, in which case
// only the static table is available.
func NewResolver(googleAPIKey string) *Resolver {
	if googleAPIKey != "" {
		geocoder.ApiKey = googleAPIKey
	}
	return &Resolver{apiKey: googleAPIKey}
}

// Resolve returns coordinates for a city name, or a typed failure when the
// city is unknown and no geocoding key is configured.
func (r *Resolver) Resolve(city string) (Coordinates, error) {
	if c, ok := knownPlaces[strings.ToLower(strings.TrimSpace(city))]; ok {
		return c, nil
	}
	if r.apiKey == "" {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", city, ErrNotConfigured)
	}
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: "India"})
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w: %v", city, ErrNotFound, err)
	}
	return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
