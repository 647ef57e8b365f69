package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/airquality/providers"
	httpapi "github.com/i474232898/air-quality-aggregation/internal/api/http"
	"github.com/i474232898/air-quality-aggregation/internal/budget"
	"github.com/i474232898/air-quality-aggregation/internal/config"
	"github.com/i474232898/air-quality-aggregation/internal/scheduler"
	"github.com/i474232898/air-quality-aggregation/internal/store"
)

func main() {
	zlog, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()
	log := zlog.Sugar()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.FetchTimeout,
	}

	// Durable request budget; the only persistent state in the process.
	ledgerStore, err := budget.NewSQLiteStore(cfg.LedgerDBPath)
	if err != nil {
		log.Fatalw("failed to open ledger store", "error", err)
	}
	defer ledgerStore.Close()

	ledger := budget.NewLedger(ledgerStore, log, cfg.DailyRequestLimit, cfg.ManualRefreshLimit, nil)

	// In-memory reading store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// City providers, tried in order; station providers, fanned out together.
	cityChain := []airquality.CityProvider{
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey),
		providers.NewWAQIProvider(httpClient, cfg.WAQIToken),
		providers.NewAmbeeProvider(httpClient, cfg.AmbeeAPIKey),
		providers.NewCPCBProvider(httpClient, cfg.DataGovAPIKey),
	}
	stationSrcs := []airquality.StationProvider{
		providers.NewWAQIProvider(httpClient, cfg.WAQIToken),
		providers.NewOpenAQProvider(httpClient, cfg.OpenAQAPIKey),
	}

	resolver := airquality.NewResolver(cfg.GoogleGeocoderKey)

	service := airquality.NewService(
		ledger, memStore, resolver, log,
		cfg.PrimaryCity, cityChain, stationSrcs, cfg.FetchTimeout,
	)

	// Automatic refresh loop at the adaptive cadence.
	runner := scheduler.NewRunner(log, service.AutoRefresh, nil)
	if err := runner.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer runner.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "air-quality-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "air-quality-aggregation",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}
