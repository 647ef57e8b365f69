package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

// openaqLocationIDs maps catalog station IDs to OpenAQ location identifiers.
var openaqLocationIDs = map[string]string{
	"anand-vihar":     "8118",
	"rk-puram":        "8119",
	"punjabi-bagh":    "8381",
	"ito":             "8557",
	"dwarka-sector-8": "10478",
	"lodhi-road":      "8558",
	"iit-delhi":       "10347",
	"okhla-phase-2":   "10479",
}

// OpenAQProvider is the generic measurement network. It returns raw
// per-parameter measurements, so the standardized index is always computed
// locally via the classifier.
type OpenAQProvider struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenAQProvider(client *http.Client, apiKey string) *OpenAQProvider {
	return &OpenAQProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openaq.org/v2/latest",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("openaq"),
	}
}

func (p *OpenAQProvider) Name() airquality.Source {
	return airquality.SourceOpenAQ
}

func (p *OpenAQProvider) FetchStation(ctx context.Context, st airquality.Station) (airquality.Reading, error) {
	if p.apiKey == "" {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotConfigured, nil)
	}
	locationID, ok := openaqLocationIDs[st.ID]
	if !ok {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("station %q has no openaq location", st.ID))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("location_id", locationID)
		values.Set("limit", "1")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-Key", p.apiKey)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.Name(), buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Measurements []struct {
				Parameter   string  `json:"parameter"`
				Value       float64 `json:"value"`
				Unit        string  `json:"unit"`
				LastUpdated string  `json:"lastUpdated"`
			} `json:"measurements"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}
	if len(payload.Results) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("no results for location %s", locationID))
	}

	pollutants := make(map[airquality.Pollutant]float64)
	observed := time.Time{}
	for _, m := range payload.Results[0].Measurements {
		pollutant, ok := openaqParameter(m.Parameter)
		if !ok || m.Value < 0 {
			continue
		}
		value := m.Value
		// OpenAQ reports CO in µg/m³; normalize to mg/m³.
		if pollutant == airquality.CO {
			value /= 1000
		}
		pollutants[pollutant] = value

		if ts, err := time.Parse(time.RFC3339, m.LastUpdated); err == nil && ts.After(observed) {
			observed = ts
		}
	}
	if len(pollutants) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse,
			fmt.Errorf("no usable measurements for location %s", locationID))
	}
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	return airquality.Reading{
		AQI:         airquality.OverallIndex(pollutants),
		Location:    st.Name,
		Coordinates: st.Coordinates,
		Pollutants:  pollutants,
		ObservedAt:  observed.UTC(),
		Source:      p.Name(),
	}, nil
}

func openaqParameter(name string) (airquality.Pollutant, bool) {
	switch name {
	case "pm25":
		return airquality.PM25, true
	case "pm10":
		return airquality.PM10, true
	case "no2":
		return airquality.NO2, true
	case "so2":
		return airquality.SO2, true
	case "o3":
		return airquality.O3, true
	case "co":
		return airquality.CO, true
	default:
		return "", false
	}
}
