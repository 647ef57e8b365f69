package airquality

import "time"

// SyntheticAQI is the fixed index of the fallback reading. The pollutant
// concentrations below are chosen so the dominant-pollutant rule (PM2.5 at
// 225.4 µg/m³) reproduces exactly this value.
const SyntheticAQI = 275

// syntheticPollutants models a typical severe-smog Delhi evening.
var syntheticPollutants = map[Pollutant]float64{
	PM25: 225.4,
	PM10: 340,
	NO2:  96,
	SO2:  22,
	CO:   2.4,
	O3:   38,
}

// SyntheticReading returns the deterministic fallback served when every real
// source for the primary city fails. It is always tagged SourceSynthetic so
// the UI can never mistake it for live data.
func SyntheticReading(now time.Time) Reading {
	pollutants := make(map[Pollutant]float64, len(syntheticPollutants))
	for k, v := range syntheticPollutants {
		pollutants[k] = v
	}
	return Reading{
		AQI:         SyntheticAQI,
		Location:    "Delhi",
		Coordinates: Coordinates{Lat: 28.6139, Lon: 77.2090},
		Pollutants:  pollutants,
		ObservedAt:  now.UTC(),
		Source:      SourceSynthetic,
	}
}
