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
	"github.com/i474232898/air-quality-aggregation/internal/common"
)

// waqiStationFeeds maps catalog station IDs to WAQI feed paths.
var waqiStationFeeds = map[string]string{
	"anand-vihar":     "@2553",
	"rk-puram":        "@10111",
	"punjabi-bagh":    "@10112",
	"ito":             "@2556",
	"dwarka-sector-8": "@10113",
	"lodhi-road":      "@10124",
	"iit-delhi":       "@10114",
	"okhla-phase-2":   "@10115",
}

// WAQIProvider is the dedicated station network. Its composite AQI field is
// trusted verbatim rather than recomputed; the iaqi sub-index map is carried
// through as the pollutant breakdown. Serves both city feeds and per-station
// feeds.
type WAQIProvider struct {
	token   string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWAQIProvider(client *http.Client, token string) *WAQIProvider {
	return &WAQIProvider{
		token:   token,
		baseURL: "https://api.waqi.info/feed",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("waqi"),
	}
}

func (p *WAQIProvider) Name() airquality.Source {
	return airquality.SourceWAQI
}

func (p *WAQIProvider) Fetch(ctx context.Context, target airquality.Target) (airquality.Reading, error) {
	r, err := p.fetchFeed(ctx, url.PathEscape(target.City))
	if err != nil {
		return airquality.Reading{}, err
	}
	r.Location = target.City
	if target.Coordinates != nil {
		r.Coordinates = *target.Coordinates
	}
	return r, nil
}

func (p *WAQIProvider) FetchStation(ctx context.Context, st airquality.Station) (airquality.Reading, error) {
	feed, ok := waqiStationFeeds[st.ID]
	if !ok {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
			fmt.Errorf("station %q has no waqi feed", st.ID))
	}
	r, err := p.fetchFeed(ctx, feed)
	if err != nil {
		return airquality.Reading{}, err
	}
	r.Location = st.Name
	r.Coordinates = st.Coordinates
	return r, nil
}

func (p *WAQIProvider) fetchFeed(ctx context.Context, feed string) (airquality.Reading, error) {
	if p.token == "" {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotConfigured, nil)
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s/?token=%s", p.baseURL, feed, url.QueryEscape(p.token))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.Name(), buildRequest)
	if err != nil {
		return airquality.Reading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}

	if payload.Status != "ok" {
		// On error the data field holds a message string.
		var msg string
		_ = json.Unmarshal(payload.Data, &msg)
		if common.HasAny(msg, "Unknown station", "Unknown ID", "can not connect") {
			return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrNotFound,
				fmt.Errorf("%s", msg))
		}
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrUpstream,
			fmt.Errorf("status %q: %s", payload.Status, msg))
	}

	var body struct {
		// aqi is "-" when the station has no current data.
		AQI  any `json:"aqi"`
		City struct {
			Geo  []float64 `json:"geo"`
			Name string    `json:"name"`
		} `json:"city"`
		IAQI map[string]struct {
			V float64 `json:"v"`
		} `json:"iaqi"`
		Time struct {
			V int64 `json:"v"`
		} `json:"time"`
	}
	if err := json.Unmarshal(payload.Data, &body); err != nil {
		return airquality.Reading{}, airquality.Fail(p.Name(), airquality.ErrMalformedResponse, err)
	}

	aqi := 0
	if v, ok := body.AQI.(float64); ok {
		aqi = int(v)
	}

	pollutants := make(map[airquality.Pollutant]float64)
	for key, val := range body.IAQI {
		if pollutant, ok := waqiPollutantKey(key); ok {
			pollutants[pollutant] = val.V
		}
	}

	ts := time.Now().UTC()
	if body.Time.V > 0 {
		ts = time.Unix(body.Time.V, 0).UTC()
	}

	coords := airquality.Coordinates{}
	if len(body.City.Geo) == 2 {
		coords = airquality.Coordinates{Lat: body.City.Geo[0], Lon: body.City.Geo[1]}
	}

	return airquality.Reading{
		AQI:         aqi,
		Location:    body.City.Name,
		Coordinates: coords,
		Pollutants:  pollutants,
		ObservedAt:  ts,
		Source:      p.Name(),
	}, nil
}

func waqiPollutantKey(key string) (airquality.Pollutant, bool) {
	switch key {
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
