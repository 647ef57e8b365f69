package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/budget"
	"github.com/i474232898/air-quality-aggregation/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. These routes
// are the only surface the (out-of-repo) dashboard UI calls.
func RegisterRoutes(app *fiber.App, service *airquality.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/airquality/current", func(c *fiber.Ctx) error {
		city := cityOrPrimary(c, service)

		reading, err := service.LatestReading(city)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no air-quality data for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read air-quality data")
		}

		return c.JSON(reading)
	})

	v1.Get("/airquality/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c, service); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings, err := service.ReadingHistory(req.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no air-quality history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read air-quality history")
		}

		return c.JSON(fiber.Map{
			"city":     req.City,
			"from":     req.From,
			"to":       req.To,
			"readings": readings,
		})
	})

	v1.Post("/airquality/refresh", func(c *fiber.Ctx) error {
		city := cityOrPrimary(c, service)
		isManual := c.QueryBool("manual", true)

		reading, err := service.RequestRefresh(c.Context(), airquality.Target{City: city}, isManual)
		if err != nil {
			return refreshError(err)
		}
		return c.JSON(reading)
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		if report, ok := service.StationReportSnapshot(); ok {
			return c.JSON(report)
		}

		// No cached view yet; this is a user-visible refresh and spends budget.
		report, err := service.RefreshStations(c.Context(), false)
		if err != nil {
			return refreshError(err)
		}
		return c.JSON(report)
	})

	v1.Post("/stations/refresh", func(c *fiber.Ctx) error {
		isManual := c.QueryBool("manual", true)

		report, err := service.RefreshStations(c.Context(), isManual)
		if err != nil {
			return refreshError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/usage", func(c *fiber.Ctx) error {
		return c.JSON(service.UsageSnapshot())
	})
}

// refreshError maps the typed failure taxonomy onto HTTP statuses. The two
// quota conditions get distinct messages so the UI can tell "no more
// automatic room today" from "no more manual refresh room today".
func refreshError(err error) error {
	switch {
	case errors.Is(err, budget.ErrDailyLimit):
		return fiber.NewError(fiber.StatusTooManyRequests, "daily request quota exhausted")
	case errors.Is(err, budget.ErrManualLimit):
		return fiber.NewError(fiber.StatusTooManyRequests, "manual refresh quota exhausted")
	case errors.Is(err, airquality.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unknown city or station")
	case errors.Is(err, airquality.ErrNotConfigured):
		return fiber.NewError(fiber.StatusServiceUnavailable, "source not configured")
	case errors.Is(err, airquality.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned malformed data")
	case errors.Is(err, airquality.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, "upstream error")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "refresh failed")
	}
}

func cityOrPrimary(c *fiber.Ctx, service *airquality.Service) string {
	if city := c.Query("city"); city != "" {
		return city
	}
	return service.PrimaryCity()
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	City string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, service *airquality.Service) error {
	h.City = cityOrPrimary(c, service)

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
