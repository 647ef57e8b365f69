package airquality

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stationByID(id string) Station {
	for _, st := range stationCatalog {
		if st.ID == id {
			return st
		}
	}
	panic("unknown station id " + id)
}

func stationReading(src Source, aqi int) Reading {
	return Reading{
		AQI:        aqi,
		Pollutants: map[Pollutant]float64{PM25: float64(aqi)},
		ObservedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Source:     src,
	}
}

func TestReconcilePrefersStationNetworkOverMeasurementNetwork(t *testing.T) {
	st := stationByID("anand-vihar")
	waqi := stationReading(SourceWAQI, 182)
	openaq := stationReading(SourceOpenAQ, 95)

	report := Reconcile([]SourceResult{
		{Station: st, Reading: openaq},
		{Station: st, Reading: waqi},
	})

	require.Len(t, report.Stations, 1)
	// The winning reading must be carried through untouched.
	assert.Equal(t, waqi, report.Stations[0].Reading)
	assert.Equal(t, st, report.Stations[0].Station)
}

func TestReconcileFallsBackToLowerPrioritySource(t *testing.T) {
	st := stationByID("ito")

	report := Reconcile([]SourceResult{
		{Station: st, Err: errors.New("waqi down")},
		{Station: st, Reading: stationReading(SourceOpenAQ, 140)},
	})

	require.Len(t, report.Stations, 1)
	assert.Equal(t, SourceOpenAQ, report.Stations[0].Reading.Source)
	assert.Equal(t, 140, report.Stations[0].Reading.AQI)
}

func TestReconcileDropsStationsWithoutUsableReadings(t *testing.T) {
	withData := stationByID("rk-puram")
	noData := stationByID("okhla-phase-2")

	report := Reconcile([]SourceResult{
		{Station: withData, Reading: stationReading(SourceWAQI, 120)},
		// Non-positive AQI counts as absent, as does a failure.
		{Station: noData, Reading: stationReading(SourceWAQI, 0)},
		{Station: noData, Err: errors.New("timeout")},
	})

	require.Len(t, report.Stations, 1)
	assert.Equal(t, withData.ID, report.Stations[0].Station.ID)
	assert.Equal(t, 1, report.TotalStations)
}

func TestReconcileAverageAQI(t *testing.T) {
	report := Reconcile([]SourceResult{
		{Station: stationByID("anand-vihar"), Reading: stationReading(SourceWAQI, 100)},
		{Station: stationByID("ito"), Reading: stationReading(SourceWAQI, 151)},
	})

	assert.Equal(t, 2, report.TotalStations)
	assert.Equal(t, 126, report.AverageAQI) // round(125.5)
}

func TestReconcileEmptyInput(t *testing.T) {
	report := Reconcile(nil)
	assert.Empty(t, report.Stations)
	assert.Equal(t, 0, report.AverageAQI)
	assert.Equal(t, 0, report.TotalStations)
}

func TestReconcileDeterministic(t *testing.T) {
	input := []SourceResult{
		{Station: stationByID("ito"), Reading: stationReading(SourceOpenAQ, 90)},
		{Station: stationByID("anand-vihar"), Reading: stationReading(SourceWAQI, 182)},
		{Station: stationByID("ito"), Reading: stationReading(SourceWAQI, 110)},
		{Station: stationByID("rk-puram"), Err: errors.New("down")},
	}

	first := Reconcile(input)
	second := Reconcile(input)
	require.Equal(t, first, second)

	// Output order is by station ID, independent of input order.
	require.Len(t, first.Stations, 2)
	assert.Equal(t, "anand-vihar", first.Stations[0].Station.ID)
	assert.Equal(t, "ito", first.Stations[1].Station.ID)
}
