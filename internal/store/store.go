package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no subscription matches the given id.
	ErrNotFound = errors.New("subscription not found")
)

// Subscription is a stored request to be alerted about forecast changes for
// one crag and date window. Conditions and Temperature hold the forecast
// snapshot captured at subscription time; the scanner compares against them
// on every pass. Lat/Lon are an immutable copy taken from the catalog entry.
type Subscription struct {
	ID          uuid.UUID
	CragName    string
	DateFrom    time.Time
	DateTo      time.Time
	Conditions  string
	Temperature int
	Email       string
	Lat         float64
	Lon         float64
	CreatedAt   time.Time
}

// Store is the contract the subscription stores must satisfy.
type Store interface {
	// Insert persists one subscription. The caller sets every field but
	// ID and CreatedAt, which Insert assigns.
	Insert(ctx context.Context, sub *Subscription) error

	// ListUpcoming returns subscriptions whose window start has not yet
	// passed (date_from >= today). Rows in the past stay in the store and
	// are simply never returned.
	ListUpcoming(ctx context.Context) ([]Subscription, error)

	// UpdateSnapshot replaces the recorded forecast snapshot of one
	// subscription. Only used when the scanner is configured to advance
	// its comparison baseline after notifying.
	UpdateSnapshot(ctx context.Context, id uuid.UUID, temperature int, conditions string) error
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
