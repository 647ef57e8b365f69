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

// OpenWeatherProvider is the global city-level source: the OpenWeatherMap
// air_pollution endpoint keyed by coordinates. It reports raw component
// concentrations; the standardized index is computed locally from them.
type OpenWeatherProvider struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/air_pollution",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() airquality.Source {
	return airquality.SourceOpenWeather
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, target airquality.Target) (airquality.Reading, error) {
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
		values.Set("appid", p.apiKey)
		values.Set("lat", fmt.Sprintf("%f", coords.Lat))
		values.Set("lon", fmt.Sprintf("%f", coords.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.Name(), buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt         int64 `json:"dt"`
			Components struct {
				CO   float64 `json:"co"`
				NO2  float64 `json:"no2"`
				O3   float64 `json:"o3"`
				SO2  float64 `json:"so2"`
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}
	if len(payload.List) == 0 {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse,
			fmt.Errorf("empty list in response"))
	}

	entry := payload.List[0]
	ts := time.Unix(entry.Dt, 0).UTC()
	if entry.Dt == 0 {
		ts = time.Now().UTC()
	}

	pollutants := map[airquality.Pollutant]float64{
		airquality.PM25: entry.Components.PM25,
		airquality.PM10: entry.Components.PM10,
		airquality.NO2:  entry.Components.NO2,
		airquality.SO2:  entry.Components.SO2,
		airquality.O3:   entry.Components.O3,
		// Upstream reports CO in µg/m³; normalize to mg/m³.
		airquality.CO: entry.Components.CO / 1000,
	}

	return airquality.Reading{
		AQI:         airquality.OverallIndex(pollutants),
		Location:    target.City,
		Coordinates: coords,
		Pollutants:  pollutants,
		ObservedAt:  ts,
		Source:      p.Name(),
	}, nil
}
