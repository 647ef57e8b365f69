package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

// cpcbResourceID is the data.gov.in resource for real-time station AQI data
// published by the pollution control board.
const cpcbResourceID = "3b01bcb8-0b14-4abf-b6f2-c1bfd384ba69"

const cpcbTimeLayout = "02-01-2006 15:04:05"

// CPCBProvider is the government industrial-emissions feed on data.gov.in.
// Records arrive one-per-pollutant-per-station; a city fetch averages each
// pollutant across stations and computes the index locally.
type CPCBProvider struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewCPCBProvider(client *http.Client, apiKey string) *CPCBProvider {
	return &CPCBProvider{
		apiKey:  apiKey,
		baseURL: "https://api.data.gov.in/resource/" + cpcbResourceID,
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("cpcb"),
	}
}

func (p *CPCBProvider) Name() airquality.Source {
	return airquality.SourceCPCB
}

func (p *CPCBProvider) Fetch(ctx context.Context, target airquality.Target) (airquality.Reading, error) {
	if p.apiKey == "" {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotConfigured, nil)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("api-key", p.apiKey)
		values.Set("format", "json")
		values.Set("limit", "200")
		values.Set("filters[city]", target.City)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.Name(), buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Records []struct {
			PollutantID  string `json:"pollutant_id"`
			PollutantAvg string `json:"pollutant_avg"`
			LastUpdate   string `json:"last_update"`
			Latitude     string `json:"latitude"`
			Longitude    string `json:"longitude"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}
	if len(payload.Records) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("no records for city %q", target.City))
	}

	sums := make(map[airquality.Pollutant]float64)
	counts := make(map[airquality.Pollutant]int)
	observed := time.Time{}
	coords := airquality.Coordinates{}

	for _, rec := range payload.Records {
		pollutant, ok := cpcbPollutantID(rec.PollutantID)
		if !ok {
			continue
		}
		avg, err := strconv.ParseFloat(rec.PollutantAvg, 64)
		if err != nil {
			// "NA" readings are common in this feed.
			continue
		}
		sums[pollutant] += avg
		counts[pollutant]++

		if ts, err := time.ParseInLocation(cpcbTimeLayout, rec.LastUpdate, time.Local); err == nil && ts.After(observed) {
			observed = ts
		}
		if coords == (airquality.Coordinates{}) {
			lat, latErr := strconv.ParseFloat(rec.Latitude, 64)
			lon, lonErr := strconv.ParseFloat(rec.Longitude, 64)
			if latErr == nil && lonErr == nil {
				coords = airquality.Coordinates{Lat: lat, Lon: lon}
			}
		}
	}
	if len(sums) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse,
			fmt.Errorf("no parsable pollutant records for city %q", target.City))
	}

	pollutants := make(map[airquality.Pollutant]float64, len(sums))
	for pollutant, sum := range sums {
		pollutants[pollutant] = sum / float64(counts[pollutant])
	}
	if observed.IsZero() {
		observed = time.Now()
	}
	if target.Coordinates != nil {
		coords = *target.Coordinates
	}

	return airquality.Reading{
		AQI:         airquality.OverallIndex(pollutants),
		Location:    target.City,
		Coordinates: coords,
		Pollutants:  pollutants,
		ObservedAt:  observed.UTC(),
		Source:      p.Name(),
	}, nil
}

func cpcbPollutantID(id string) (airquality.Pollutant, bool) {
	switch id {
	case "PM2.5":
		return airquality.PM25, true
	case "PM10":
		return airquality.PM10, true
	case "NO2":
		return airquality.NO2, true
	case "SO2":
		return airquality.SO2, true
	case "OZONE":
		return airquality.O3, true
	case "CO":
		// CPCB already reports CO in mg/m³.
		return airquality.CO, true
	default:
		return "", false
	}
}
