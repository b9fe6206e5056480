package discovery

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/forecast"
)

// ErrValidation is returned when a find request misses required fields.
var ErrValidation = errors.New("missing required fields")

// kmPerHour is the fixed average-speed assumption converting a travel-time
// budget into a distance cutoff. Not a live routing estimate.
const kmPerHour = 100

// fetchTimeout bounds each outbound forecast call.
const fetchTimeout = 10 * time.Second

// FindRequest describes one discovery query.
type FindRequest struct {
	Hours    int
	Origin   string
	DateFrom string
	DateTo   string
	MinTemp  *int
	MaxTemp  *int
}

// Crag is a catalog entry annotated with its forecast for the requested
// window.
type Crag struct {
	Name     string                `json:"name"`
	Distance float64               `json:"distance"`
	Climbs   int                   `json:"climbs"`
	Lat      float64               `json:"lat"`
	Lon      float64               `json:"lon"`
	Weather  forecast.DayForecasts `json:"weather"`
}

// Service filters the static catalog by distance and annotates survivors
// with live forecasts. Read-only; it holds no state across requests.
type Service struct {
	catalog  *catalog.Catalog
	forecast forecast.Client
}

func NewService(cat *catalog.Catalog, fc forecast.Client) *Service {
	return &Service{catalog: cat, forecast: fc}
}

// Find returns the crags reachable within the travel budget, in catalog
// order, each annotated with per-day forecasts for [DateFrom, DateTo].
//
// A temperature band is only ever applied to single-day requests with both
// bounds present; multi-day requests ignore MinTemp/MaxTemp entirely. A crag
// with no forecast for the single requested day fails the band check and is
// dropped, since the check cannot succeed on missing data.
func (s *Service) Find(ctx context.Context, req FindRequest) ([]Crag, error) {
	if req.Hours <= 0 || req.Origin == "" || req.DateFrom == "" || req.DateTo == "" {
		return nil, ErrValidation
	}

	maxDistance := float64(req.Hours * kmPerHour)
	filterTemp := req.DateFrom == req.DateTo && req.MinTemp != nil && req.MaxTemp != nil

	results := []Crag{}
	for _, entry := range s.catalog.CragsFor(req.Origin) {
		if entry.Distance > maxDistance {
			continue
		}

		weather := s.fetchWeather(ctx, entry, req.DateFrom, req.DateTo)

		if filterTemp {
			day, ok := weather.Get(req.DateFrom)
			if !ok {
				continue
			}
			if day.Temperature < *req.MinTemp || day.Temperature > *req.MaxTemp {
				continue
			}
		}

		results = append(results, Crag{
			Name:     entry.Name,
			Distance: entry.Distance,
			Climbs:   entry.Climbs,
			Lat:      entry.Lat,
			Lon:      entry.Lon,
			Weather:  weather,
		})
	}

	return results, nil
}

func (s *Service) fetchWeather(ctx context.Context, entry catalog.Crag, from, to string) forecast.DayForecasts {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	weather, err := s.forecast.FetchRange(fetchCtx, entry.Lat, entry.Lon, from, to)
	if err != nil {
		// Forecast failure is not fatal to discovery; the crag is
		// returned with an empty mapping (absent dates).
		log.Printf("discovery: forecast failed for %s: %v", entry.Name, err)
		return forecast.DayForecasts{}
	}
	return weather
}
