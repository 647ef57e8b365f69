package airquality

import (
	"strings"
	"time"
)

// Source identifies which upstream produced a reading.
type Source string

const (
	SourceOpenWeather Source = "openweather" // global city-level provider
	SourceWAQI        Source = "waqi"        // dedicated station network
	SourceOpenAQ      Source = "openaq"      // generic measurement network
	SourceCPCB        Source = "cpcb"        // government industrial-emissions feed
	SourceAmbee       Source = "ambee"       // commercial geospatial provider
	SourceSynthetic   Source = "synthetic"   // locally generated fallback
)

// Pollutant names a measured pollutant in normalized form.
// Concentrations are µg/m³ for everything except CO, which is mg/m³.
type Pollutant string

const (
	PM25 Pollutant = "pm2_5"
	PM10 Pollutant = "pm10"
	NO2  Pollutant = "no2"
	CO   Pollutant = "co"
	O3   Pollutant = "o3"
	SO2  Pollutant = "so2"
)

// Coordinates is a WGS84 lat/lon pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Reading is the normalized air-quality view from one source at one point in time.
// Readings are immutable value objects; a new one replaces the old wholesale.
type Reading struct {
	AQI         int                   `json:"aqi"`
	Location    string                `json:"location"`
	Coordinates Coordinates           `json:"coordinates"`
	Pollutants  map[Pollutant]float64 `json:"pollutants"`
	ObservedAt  time.Time             `json:"observedAt"` // always UTC
	Source      Source                `json:"source"`
}

// StationType categorizes who operates a monitoring site.
type StationType string

const (
	StationGovernment StationType = "government"
	StationResearch   StationType = "research"
	StationCommunity  StationType = "community"
)

// Station is one physical monitoring site from the static catalog.
// IDs are stable per site and shared across sources.
type Station struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Type        StationType `json:"type"`
}

// StationReading couples a catalog station with its reconciled reading.
type StationReading struct {
	Station Station `json:"station"`
	Reading Reading `json:"reading"`
}

// StationReport is the reconciled multi-source view over the station catalog.
type StationReport struct {
	Stations      []StationReading `json:"stations"`
	AverageAQI    int              `json:"averageAqi"`
	TotalStations int              `json:"totalStations"`
}

// Target identifies what a refresh is for: a city by name, optionally with
// already-resolved coordinates for the coordinate-based providers.
type Target struct {
	City        string       `json:"city"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Key returns a canonical string key for indexing this target in stores.
func (t Target) Key() string {
	return strings.ToLower(strings.TrimSpace(t.City))
}
