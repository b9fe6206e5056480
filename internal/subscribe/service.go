package subscribe

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cragcast/cragcast/internal/forecast"
	"github.com/cragcast/cragcast/internal/mail"
	"github.com/cragcast/cragcast/internal/store"
)

// SelectedCrag is one crag chosen by the user, carrying the forecast mapping
// the discovery response attached to it.
type SelectedCrag struct {
	Name    string
	Lat     float64
	Lon     float64
	Weather forecast.DayForecasts
}

// Result reports per-crag persistence outcome. Writes are not transactional:
// a failure aborts the remaining inserts but does not roll back earlier ones,
// so callers can retry just the Failed subset.
type Result struct {
	Saved  []string
	Failed []string
}

// Service creates subscriptions and sends the confirmation mail.
type Service struct {
	store  store.Store
	mailer mail.Sender
}

func NewService(st store.Store, mailer mail.Sender) *Service {
	return &Service{store: st, mailer: mailer}
}

// Subscribe persists one subscription row per selected crag, all sharing the
// same email and date window. The recorded snapshot is the first entry of
// the crag's forecast mapping in insertion order, which is not necessarily
// the entry for dateFrom. On full success a confirmation email is sent; a
// confirmation transport failure is logged but does not fail the request.
func (s *Service) Subscribe(ctx context.Context, email, dateFrom, dateTo string, crags []SelectedCrag) (Result, error) {
	from, err := time.Parse(forecast.DateLayout, dateFrom)
	if err != nil {
		return Result{}, fmt.Errorf("invalid dateFrom: %w", err)
	}
	to, err := time.Parse(forecast.DateLayout, dateTo)
	if err != nil {
		return Result{}, fmt.Errorf("invalid dateTo: %w", err)
	}

	var result Result
	for i, crag := range crags {
		sub := store.Subscription{
			CragName: crag.Name,
			DateFrom: from,
			DateTo:   to,
			Email:    email,
			Lat:      crag.Lat,
			Lon:      crag.Lon,
		}

		if entry, ok := crag.Weather.First(); ok {
			sub.Conditions = entry.Forecast.Description
			sub.Temperature = entry.Forecast.Temperature
		}

		if err := s.store.Insert(ctx, &sub); err != nil {
			for _, rest := range crags[i:] {
				result.Failed = append(result.Failed, rest.Name)
			}
			return result, fmt.Errorf("failed to save subscription for %s: %w", crag.Name, err)
		}
		result.Saved = append(result.Saved, crag.Name)
	}

	body := mail.ConfirmationBody(dateFrom, dateTo, result.Saved)
	if err := s.mailer.Send(mail.ConfirmationSubject, email, body); err != nil {
		log.Printf("subscribe: confirmation mail to %s failed: %v", email, err)
	}

	return result, nil
}
