package httpapi

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/cragcast/cragcast/internal/alert"
	"github.com/cragcast/cragcast/internal/discovery"
	"github.com/cragcast/cragcast/internal/forecast"
	"github.com/cragcast/cragcast/internal/subscribe"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, disc *discovery.Service, subs *subscribe.Service, scanner *alert.Scanner) {
	app.Post("/find-crags", func(c *fiber.Ctx) error {
		var req findCragsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
		}

		crags, err := disc.Find(c.Context(), req.toFindRequest())
		if err != nil {
			if errors.Is(err, discovery.ErrValidation) {
				return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(crags)
	})

	app.Post("/subscribe", func(c *fiber.Ctx) error {
		var req subscribeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		selected := make([]subscribe.SelectedCrag, 0, len(req.SelectedCrags))
		for _, crag := range req.SelectedCrags {
			selected = append(selected, subscribe.SelectedCrag{
				Name:    crag.Name,
				Lat:     crag.Lat,
				Lon:     crag.Lon,
				Weather: crag.Weather,
			})
		}

		result, err := subs.Subscribe(c.Context(), req.Email, req.DateFrom, req.DateTo, selected)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Failed to save crags",
				"saved":   result.Saved,
				"failed":  result.Failed,
			})
		}

		return c.JSON(fiber.Map{"status": "success"})
	})

	app.Get("/check-weather", func(c *fiber.Ctx) error {
		report, err := scanner.Run(c.Context())
		if err != nil {
			if errors.Is(err, alert.ErrScanInProgress) {
				return fiber.NewError(fiber.StatusConflict, "weather check already running")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.SendString(fmt.Sprintf("Checked %d forecasts. Emails sent: %d\n", report.Considered, report.Sent))
	})
}

// findCragsRequest is the POST /find-crags body.
type findCragsRequest struct {
	Hours    int    `json:"hours" validate:"required,gt=0"`
	Origin   string `json:"origin" validate:"required"`
	DateFrom string `json:"dateFrom" validate:"required"`
	DateTo   string `json:"dateTo" validate:"required"`
	MinTemp  *int   `json:"minTemp"`
	MaxTemp  *int   `json:"maxTemp"`
}

func (r findCragsRequest) toFindRequest() discovery.FindRequest {
	return discovery.FindRequest{
		Hours:    r.Hours,
		Origin:   r.Origin,
		DateFrom: r.DateFrom,
		DateTo:   r.DateTo,
		MinTemp:  r.MinTemp,
		MaxTemp:  r.MaxTemp,
	}
}

// subscribeRequest is the POST /subscribe body.
type subscribeRequest struct {
	Email         string         `json:"email" validate:"required,email"`
	DateFrom      string         `json:"dateFrom" validate:"required"`
	DateTo        string         `json:"dateTo" validate:"required"`
	SelectedCrags []selectedCrag `json:"selectedCrags" validate:"required,min=1,dive"`
}

type selectedCrag struct {
	Name    string                `json:"name" validate:"required"`
	Lat     float64               `json:"lat"`
	Lon     float64               `json:"lon"`
	Weather forecast.DayForecasts `json:"weather"`
}
