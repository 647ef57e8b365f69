package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds everything the process needs from the environment.
type AppConfig struct {
	// Upstream credentials. A missing key disables that source (it fails
	// fast with a not-configured error instead of dialing out).
	OpenWeatherAPIKey string
	WAQIToken         string
	OpenAQAPIKey      string
	DataGovAPIKey     string
	AmbeeAPIKey       string
	GoogleGeocoderKey string

	// PrimaryCity always gets a reading, synthetic if need be.
	PrimaryCity string

	// Request budget.
	DailyRequestLimit  int
	ManualRefreshLimit int
	LedgerDBPath       string

	// Outbound fetch timeout per refresh cycle.
	FetchTimeout time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of readings per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of readings (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WAQIToken = os.Getenv("WAQI_API_TOKEN")
	cfg.OpenAQAPIKey = os.Getenv("OPENAQ_API_KEY")
	cfg.DataGovAPIKey = os.Getenv("DATA_GOV_API_KEY")
	cfg.AmbeeAPIKey = os.Getenv("AMBEE_API_KEY")
	cfg.GoogleGeocoderKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.PrimaryCity = getenvDefault("PRIMARY_CITY", "Delhi")

	cfg.DailyRequestLimit = getenvInt("DAILY_REQUEST_LIMIT", 1000)
	cfg.ManualRefreshLimit = getenvInt("MANUAL_REFRESH_LIMIT", 436)
	cfg.LedgerDBPath = getenvDefault("LEDGER_DB_PATH", "air-quality-ledger.db")

	timeoutStr := getenvDefault("FETCH_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	// Store retention. Roughly 24h of readings at daytime cadence would be
	// far more; cap by count and age.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 720)

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
