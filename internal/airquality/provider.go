package airquality

import (
	"context"
	"time"
)

// CityProvider abstracts an upstream that can produce a composite reading
// for a city or coordinate target.
type CityProvider interface {
	Name() Source
	Fetch(ctx context.Context, target Target) (Reading, error)
}

// StationProvider abstracts an upstream that can produce a reading for one
// monitoring station from the static catalog.
type StationProvider interface {
	Name() Source
	FetchStation(ctx context.Context, st Station) (Reading, error)
}

// Store is the contract the in-memory reading store (and any future
// persistent store) must satisfy.
type Store interface {
	SaveReading(city string, r Reading)
	GetLatest(city string) (Reading, error)
	GetRange(city string, from, to time.Time) ([]Reading, error)
}
