package alert

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/cragcast/cragcast/internal/forecast"
	"github.com/cragcast/cragcast/internal/mail"
	"github.com/cragcast/cragcast/internal/store"
)

// ErrScanInProgress is returned when Run is invoked while a previous pass is
// still running. The caller should skip the firing, not queue it.
var ErrScanInProgress = errors.New("scan already in progress")

// tempTolerance is the strict change threshold in whole degrees Celsius: a
// difference of exactly 1 degree is not a change, 2 or more is.
const tempTolerance = 1

// defaultFetchTimeout bounds each per-subscription forecast call so a slow
// provider cannot stall the recurring pass.
const defaultFetchTimeout = 15 * time.Second

// Report summarizes one scan pass.
type Report struct {
	// Considered counts every subscription evaluated, including ones
	// skipped for lack of forecast data.
	Considered int

	// Sent counts change notifications actually handed to the mailer.
	Sent int
}

// Scanner runs the recurring forecast check. For every subscription whose
// window has not started yet it fetches the current forecast for the window
// start date and compares it against the snapshot recorded at subscription
// time; a material difference triggers one alert mail.
//
// The recorded snapshot is not advanced after notifying, so a forecast that
// diverges once and stays diverged re-alerts on every pass. That matches the
// subscription contract ("keep reminding"); AdvanceBaseline switches to
// notify-once-per-change semantics instead.
type Scanner struct {
	store    store.Store
	forecast forecast.Client
	mailer   mail.Sender

	advanceBaseline bool
	fetchTimeout    time.Duration
	inFlight        *atomic.Bool
}

func NewScanner(st store.Store, fc forecast.Client, mailer mail.Sender) *Scanner {
	return &Scanner{
		store:        st,
		forecast:     fc,
		mailer:       mailer,
		fetchTimeout: defaultFetchTimeout,
		inFlight:     atomic.NewBool(false),
	}
}

// AdvanceBaseline makes the scanner persist the new forecast as the
// comparison baseline after each successfully sent alert.
func (s *Scanner) AdvanceBaseline(enable bool) {
	s.advanceBaseline = enable
}

// Run executes one scan pass. At most one pass runs at a time; a call that
// would overlap returns ErrScanInProgress without touching the store.
//
// Subscriptions are processed independently: a forecast or mail failure for
// one is logged and skipped, never aborting the rest of the pass.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	if !s.inFlight.CAS(false, true) {
		return Report{}, ErrScanInProgress
	}
	defer s.inFlight.Store(false)

	subs, err := s.store.ListUpcoming(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Considered: len(subs)}
	for _, sub := range subs {
		if s.process(ctx, sub) {
			report.Sent++
		}
	}

	return report, nil
}

// process evaluates one subscription and reports whether an alert went out.
func (s *Scanner) process(ctx context.Context, sub store.Subscription) bool {
	date := sub.DateFrom.Format(forecast.DateLayout)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	snap, err := s.forecast.Fetch(fetchCtx, sub.Lat, sub.Lon, date)
	if err != nil {
		log.Printf("alert: no forecast for %s on %s: %v", sub.CragName, date, err)
		return false
	}

	if !Changed(sub.Temperature, sub.Conditions, snap) {
		return false
	}

	body := mail.AlertBody(sub.CragName, date, sub.Temperature, sub.Conditions, snap.Temperature, snap.Conditions)
	if err := s.mailer.Send(mail.AlertSubject, sub.Email, body); err != nil {
		log.Printf("alert: failed to notify %s about %s: %v", sub.Email, sub.CragName, err)
		return false
	}

	if s.advanceBaseline {
		if err := s.store.UpdateSnapshot(ctx, sub.ID, snap.Temperature, snap.Conditions); err != nil {
			log.Printf("alert: failed to advance baseline for %s: %v", sub.ID, err)
		}
	}

	return true
}

// Changed is the change predicate: a new forecast counts as materially
// different when the temperature moved by more than tempTolerance degrees or
// the case-folded condition text differs. Condition comparison is exact; no
// synonym handling ("light rain" and "rain" are different conditions).
func Changed(recordedTemp int, recordedConditions string, next forecast.Snapshot) bool {
	diff := next.Temperature - recordedTemp
	if diff < 0 {
		diff = -diff
	}
	if diff > tempTolerance {
		return true
	}
	return !strings.EqualFold(next.Conditions, recordedConditions)
}
