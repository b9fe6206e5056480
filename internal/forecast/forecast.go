package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// DateLayout is the calendar-date format used throughout the service.
const DateLayout = "2006-01-02"

// ErrNotAvailable is returned when the provider responds with a non-success
// status or the returned series has no entry for the requested date.
var ErrNotAvailable = errors.New("forecast not available")

// Snapshot is the normalized forecast for one location and date.
// Temperature is rounded up to the nearest whole degree Celsius.
type Snapshot struct {
	Temperature int    `json:"temperature"`
	Conditions  string `json:"conditions"`
}

// DayForecast is one day's forecast inside a discovery response.
type DayForecast struct {
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// DayEntry pairs a calendar date with its forecast.
type DayEntry struct {
	Date     string
	Forecast DayForecast
}

// DayForecasts is a date-keyed forecast mapping that preserves insertion
// order. It marshals to and from a JSON object whose keys appear in that
// order; a plain map will not do because snapshot capture takes the first
// entry in iteration order.
type DayForecasts []DayEntry

// Set stores the forecast for a date, overwriting an existing entry in place.
func (d *DayForecasts) Set(date string, f DayForecast) {
	for i := range *d {
		if (*d)[i].Date == date {
			(*d)[i].Forecast = f
			return
		}
	}
	*d = append(*d, DayEntry{Date: date, Forecast: f})
}

// Get returns the forecast for a date, if present.
func (d DayForecasts) Get(date string) (DayForecast, bool) {
	for _, e := range d {
		if e.Date == date {
			return e.Forecast, true
		}
	}
	return DayForecast{}, false
}

// First returns the earliest-inserted entry.
func (d DayForecasts) First() (DayEntry, bool) {
	if len(d) == 0 {
		return DayEntry{}, false
	}
	return d[0], true
}

func (d DayForecasts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Date)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Forecast)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *DayForecasts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("forecast mapping: expected JSON object, got %v", tok)
	}

	out := DayForecasts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		date, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("forecast mapping: non-string key %v", keyTok)
		}

		var f DayForecast
		if err := dec.Decode(&f); err != nil {
			return err
		}
		out.Set(date, f)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// Client abstracts the external weather provider.
type Client interface {
	// Fetch returns the forecast snapshot for one location and calendar
	// date (DateLayout). Returns ErrNotAvailable when the provider fails
	// or its series has no entry for the date.
	Fetch(ctx context.Context, lat, lon float64, date string) (Snapshot, error)

	// FetchRange returns per-day forecasts for every date in [from, to]
	// present in the provider's series. Dates outside the provider's
	// horizon are simply absent from the result.
	FetchRange(ctx context.Context, lat, lon float64, from, to string) (DayForecasts, error)
}
