package airquality

import "math"

// Status buckets a pollutant concentration into a severity tier.
type Status string

const (
	StatusGood      Status = "good"
	StatusModerate  Status = "moderate"
	StatusUnhealthy Status = "unhealthy"
	StatusCritical  Status = "critical"
)

// breakpoint is one (upper concentration bound, index at that bound) pair.
type breakpoint struct {
	Concentration float64
	Index         float64
}

// breakpointTables holds the per-pollutant concentration→index conversion
// tables (EPA-style, six tiers). Interpolation is piecewise linear between
// consecutive entries, anchored at (0, 0). Units follow the Pollutant
// constants: µg/m³ everywhere, mg/m³ for CO.
var breakpointTables = map[Pollutant][]breakpoint{
	PM25: {{12, 50}, {35.4, 100}, {55.4, 150}, {150.4, 200}, {250.4, 300}, {500.4, 500}},
	PM10: {{54, 50}, {154, 100}, {254, 150}, {354, 200}, {424, 300}, {604, 500}},
	NO2:  {{100, 50}, {188, 100}, {677, 150}, {1220, 200}, {2349, 300}, {3853, 500}},
	SO2:  {{92, 50}, {196, 100}, {484, 150}, {796, 200}, {1582, 300}, {2630, 500}},
	O3:   {{100, 50}, {160, 100}, {215, 150}, {265, 200}, {800, 300}, {1200, 500}},
	CO:   {{5, 50}, {10.9, 100}, {14.3, 150}, {17.7, 200}, {34.8, 300}, {57.7, 500}},
}

// statusThresholds holds, per pollutant, the concentration ceilings for
// good, moderate and unhealthy; anything above the last tuple entry is
// critical. Distinct from the index breakpoints: these drive the severity
// bucket shown on the dashboard cards.
var statusThresholds = map[Pollutant][3]float64{
	PM25: {30, 90, 150},
	PM10: {50, 150, 350},
	NO2:  {40, 180, 400},
	SO2:  {40, 380, 800},
	O3:   {50, 168, 208},
	CO:   {1, 10, 17},
}

// Classify maps a pollutant concentration to a severity bucket and a
// standardized index via breakpoint interpolation. Unknown pollutant names
// default to moderate with index 0, so they can never dominate the overall
// index.
func Classify(p Pollutant, concentration float64) (Status, int) {
	status := statusFor(p, concentration)
	table, ok := breakpointTables[p]
	if !ok {
		return status, 0
	}
	return status, interpolate(table, concentration)
}

// OverallIndex applies the dominant-pollutant rule: the overall index is the
// maximum per-pollutant index, never an average.
func OverallIndex(pollutants map[Pollutant]float64) int {
	overall := 0
	for p, c := range pollutants {
		if _, idx := Classify(p, c); idx > overall {
			overall = idx
		}
	}
	return overall
}

func statusFor(p Pollutant, c float64) Status {
	t, ok := statusThresholds[p]
	if !ok {
		return StatusModerate
	}
	switch {
	case c <= t[0]:
		return StatusGood
	case c <= t[1]:
		return StatusModerate
	case c <= t[2]:
		return StatusUnhealthy
	default:
		return StatusCritical
	}
}

func interpolate(table []breakpoint, c float64) int {
	if c <= 0 {
		return 0
	}

	lo := breakpoint{Concentration: 0, Index: 0}
	for _, bp := range table {
		if c <= bp.Concentration {
			frac := (c - lo.Concentration) / (bp.Concentration - lo.Concentration)
			return int(math.Round(lo.Index + frac*(bp.Index-lo.Index)))
		}
		lo = bp
	}

	// Beyond the last table entry: extend the final segment's slope so the
	// result never drops below the table's ceiling.
	last := table[len(table)-1]
	prev := breakpoint{Concentration: 0, Index: 0}
	if len(table) > 1 {
		prev = table[len(table)-2]
	}
	slope := (last.Index - prev.Index) / (last.Concentration - prev.Concentration)
	return int(math.Round(last.Index + (c-last.Concentration)*slope))
}
