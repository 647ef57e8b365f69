package airquality

import (
	"math"
	"sort"
)

// SourceResult is one station-level fetch outcome from one source.
type SourceResult struct {
	Station Station
	Reading Reading
	Err     error
}

// stationPriority orders the station-level sources from most to least
// preferred. The dedicated station network wins over the generic measurement
// network whenever both report the same site. Sources outside this list are
// never picked.
var stationPriority = []Source{SourceWAQI, SourceOpenAQ}

// Reconcile merges per-source station results into exactly one reading per
// station. Failed fetches and readings with a non-positive AQI are treated
// as absent; stations left with nothing are dropped from the output rather
// than padded with placeholders. Output is ordered by station ID, so the
// function is deterministic regardless of the (concurrency-dependent) input
// order.
func Reconcile(results []SourceResult) StationReport {
	stations := make(map[string]Station)
	readings := make(map[string]map[Source]Reading)

	for _, res := range results {
		id := res.Station.ID
		if _, ok := stations[id]; !ok {
			stations[id] = res.Station
		}
		if res.Err != nil || res.Reading.AQI <= 0 {
			continue
		}
		m := readings[id]
		if m == nil {
			m = make(map[Source]Reading)
			readings[id] = m
		}
		if _, dup := m[res.Reading.Source]; !dup {
			m[res.Reading.Source] = res.Reading
		}
	}

	ids := make([]string, 0, len(readings))
	for id := range readings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		out []StationReading
		sum int
	)
	for _, id := range ids {
		m := readings[id]
		for _, src := range stationPriority {
			if r, ok := m[src]; ok {
				out = append(out, StationReading{Station: stations[id], Reading: r})
				sum += r.AQI
				break
			}
		}
	}

	avg := 0
	if len(out) > 0 {
		avg = int(math.Round(float64(sum) / float64(len(out))))
	}

	return StationReport{
		Stations:      out,
		AverageAQI:    avg,
		TotalStations: len(out),
	}
}
