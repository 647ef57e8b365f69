package airquality

// stationCatalog is the fixed set of Delhi monitoring sites the dashboard
// tracks. The catalog is static: stations are never discovered at runtime,
// only their readings change.
var stationCatalog = []Station{
	{ID: "anand-vihar", Name: "Anand Vihar", Coordinates: Coordinates{Lat: 28.6469, Lon: 77.3164}, Type: StationGovernment},
	{ID: "rk-puram", Name: "R.K. Puram", Coordinates: Coordinates{Lat: 28.5631, Lon: 77.1868}, Type: StationGovernment},
	{ID: "punjabi-bagh", Name: "Punjabi Bagh", Coordinates: Coordinates{Lat: 28.6683, Lon: 77.1319}, Type: StationGovernment},
	{ID: "ito", Name: "ITO", Coordinates: Coordinates{Lat: 28.6289, Lon: 77.2410}, Type: StationGovernment},
	{ID: "dwarka-sector-8", Name: "Dwarka Sector 8", Coordinates: Coordinates{Lat: 28.5710, Lon: 77.0719}, Type: StationGovernment},
	{ID: "lodhi-road", Name: "Lodhi Road", Coordinates: Coordinates{Lat: 28.5918, Lon: 77.2273}, Type: StationResearch},
	{ID: "iit-delhi", Name: "IIT Delhi", Coordinates: Coordinates{Lat: 28.5450, Lon: 77.1926}, Type: StationResearch},
	{ID: "okhla-phase-2", Name: "Okhla Phase 2", Coordinates: Coordinates{Lat: 28.5310, Lon: 77.2711}, Type: StationCommunity},
}

// StationCatalog returns a copy of the static Delhi station catalog.
func StationCatalog() []Station {
	out := make([]Station, len(stationCatalog))
	copy(out, stationCatalog)
	return out
}
