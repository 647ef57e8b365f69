package airquality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The index at every table seam must equal that seam's index value exactly,
// with no interpolation off-by-one.
func TestClassifyPM25Seams(t *testing.T) {
	cases := []struct {
		concentration float64
		wantIndex     int
	}{
		{0, 0},
		{12, 50},
		{35.4, 100},
		{55.4, 150},
		{150.4, 200},
		{250.4, 300},
		{500.4, 500},
	}

	for _, tc := range cases {
		_, idx := Classify(PM25, tc.concentration)
		assert.Equalf(t, tc.wantIndex, idx, "pm2.5 at %.1f", tc.concentration)
	}
}

func TestClassifyInterpolatesWithinSegment(t *testing.T) {
	// Midpoint of the first PM2.5 segment (0..12 -> 0..50).
	_, idx := Classify(PM25, 6)
	assert.Equal(t, 25, idx)

	// 225.4 sits 75% into the 150.4..250.4 -> 200..300 segment.
	_, idx = Classify(PM25, 225.4)
	assert.Equal(t, 275, idx)
}

func TestClassifyBeyondTableExtendsLastSlope(t *testing.T) {
	// Last PM2.5 segment runs 250.4..500.4 -> 300..500, slope 0.8.
	_, atCeiling := Classify(PM25, 500.4)
	_, beyond := Classify(PM25, 600.4)

	require.Equal(t, 500, atCeiling)
	assert.Equal(t, 580, beyond)
	assert.GreaterOrEqual(t, beyond, atCeiling, "extension must never dip below the table ceiling")
}

func TestClassifyStatusBuckets(t *testing.T) {
	cases := []struct {
		pollutant     Pollutant
		concentration float64
		want          Status
	}{
		{PM25, 10, StatusGood},
		{PM25, 60, StatusModerate},
		{PM25, 120, StatusUnhealthy},
		{PM25, 200, StatusCritical},
		{PM10, 40, StatusGood},
		{CO, 0.5, StatusGood},
		{CO, 20, StatusCritical},
	}

	for _, tc := range cases {
		status, _ := Classify(tc.pollutant, tc.concentration)
		assert.Equalf(t, tc.want, status, "%s at %.1f", tc.pollutant, tc.concentration)
	}
}

func TestClassifyUnknownPollutantDefaultsToModerate(t *testing.T) {
	status, idx := Classify(Pollutant("nh3"), 80)
	assert.Equal(t, StatusModerate, status)
	assert.Equal(t, 0, idx, "unknown pollutants must never dominate the overall index")
}

func TestClassifyNonPositiveConcentration(t *testing.T) {
	_, idx := Classify(PM25, -4)
	assert.Equal(t, 0, idx)
}

// Overall index follows the dominant-pollutant rule: maximum, never average.
func TestOverallIndexDominantPollutant(t *testing.T) {
	pollutants := map[Pollutant]float64{
		PM25: 225.4, // index 275
		PM10: 154,   // index 100
		NO2:  100,   // index 50
	}
	assert.Equal(t, 275, OverallIndex(pollutants))
}

func TestOverallIndexEmpty(t *testing.T) {
	assert.Equal(t, 0, OverallIndex(nil))
}
