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

// AmbeeProvider is the commercial geospatial source, queried by coordinates.
// Its composite AQI is trusted verbatim.
type AmbeeProvider struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAmbeeProvider(client *http.Client, apiKey string) *AmbeeProvider {
	return &AmbeeProvider{
		apiKey:  apiKey,
		baseURL: "https://api.ambeedata.com/latest/by-lat-lng",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("ambee"),
	}
}

func (p *AmbeeProvider) Name() airquality.Source {
	return airquality.SourceAmbee
}

func (p *AmbeeProvider) Fetch(ctx context.Context, target airquality.Target) (airquality.Reading, error) {
	if p.apiKey == "" {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotConfigured, nil)
	}
	if target.Coordinates == nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("coordinates required for %q", target.City))
	}
	coords := *target.Coordinates

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", coords.Lat))
		values.Set("lng", fmt.Sprintf("%f", coords.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", p.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.Name(), buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Stations []struct {
			AQI       int     `json:"AQI"`
			CO        float64 `json:"CO"`
			NO2       float64 `json:"NO2"`
			Ozone     float64 `json:"OZONE"`
			PM10      float64 `json:"PM10"`
			PM25      float64 `json:"PM25"`
			SO2       float64 `json:"SO2"`
			UpdatedAt string  `json:"updatedAt"`
		} `json:"stations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}
	if len(payload.Stations) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("no station coverage at %.4f,%.4f", coords.Lat, coords.Lon))
	}

	st := payload.Stations[0]
	ts := time.Now().UTC()
	if parsed, err := time.Parse(time.RFC3339, st.UpdatedAt); err == nil {
		ts = parsed.UTC()
	}

	pollutants := map[airquality.Pollutant]float64{
		airquality.PM25: st.PM25,
		airquality.PM10: st.PM10,
		airquality.NO2:  st.NO2,
		airquality.SO2:  st.SO2,
		airquality.O3:   st.Ozone,
		// Ambee reports CO in ppm; treat as mg/m³ equivalent scale.
		airquality.CO: st.CO,
	}

	return airquality.Reading{
		AQI:         st.AQI,
		Location:    target.City,
		Coordinates: coords,
		Pollutants:  pollutants,
		ObservedAt:  ts,
		Source:      p.Name(),
	}, nil
}
