package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const seriesPayload = `{
	"list": [
		{"dt_txt": "2025-06-03 09:00:00", "main": {"temp": 9.2}, "weather": [{"description": "light rain", "icon": "10d"}]},
		{"dt_txt": "2025-06-03 18:00:00", "main": {"temp": 12.8}, "weather": [{"description": "clear sky", "icon": "01d"}]},
		{"dt_txt": "2025-06-04 09:00:00", "main": {"temp": 9.0}, "weather": [{"description": "overcast clouds", "icon": "04d"}]},
		{"dt_txt": "2025-06-05 09:00:00", "main": {"temp": -0.4}, "weather": [{"description": "snow", "icon": "13d"}]}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenWeatherClient(srv.Client(), "test-key")
	c.baseURL = srv.URL
	return c
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchMatchesFirstSlotOfDate(t *testing.T) {
	c := newTestClient(t, serveJSON(seriesPayload))

	snap, err := c.Fetch(context.Background(), 44.5, -72.8, "2025-06-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two slots exist for the date; the first one wins, with the raw 9.2
	// rounded up.
	if snap.Temperature != 10 {
		t.Errorf("expected temperature 10, got %d", snap.Temperature)
	}
	if snap.Conditions != "light rain" {
		t.Errorf("expected conditions %q, got %q", "light rain", snap.Conditions)
	}
}

func TestFetchCeilingRounding(t *testing.T) {
	c := newTestClient(t, serveJSON(seriesPayload))

	cases := []struct {
		date string
		want int
	}{
		{"2025-06-03", 10}, // 9.2 rounds up
		{"2025-06-04", 9},  // 9.0 stays
		{"2025-06-05", 0},  // -0.4 rounds up toward zero
	}
	for _, tc := range cases {
		snap, err := c.Fetch(context.Background(), 44.5, -72.8, tc.date)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.date, err)
		}
		if snap.Temperature != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.date, tc.want, snap.Temperature)
		}
	}
}

func TestFetchNoMatchingDate(t *testing.T) {
	c := newTestClient(t, serveJSON(seriesPayload))

	_, err := c.Fetch(context.Background(), 44.5, -72.8, "2025-06-20")
	if !errors.Is(err, ErrNotAvailable) {
		t.Errorf("expected ErrNotAvailable, got %v", err)
	}
}

func TestFetchProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	c.httpCfg.Backoff.MaxRetries = 0

	_, err := c.Fetch(context.Background(), 44.5, -72.8, "2025-06-03")
	if !errors.Is(err, ErrNotAvailable) {
		t.Errorf("expected ErrNotAvailable, got %v", err)
	}
}

func TestFetchRangeLastSlotWinsPerDate(t *testing.T) {
	c := newTestClient(t, serveJSON(seriesPayload))

	days, err := c.FetchRange(context.Background(), 44.5, -72.8, "2025-06-03", "2025-06-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}

	day, ok := days.Get("2025-06-03")
	if !ok {
		t.Fatal("missing forecast for 2025-06-03")
	}
	// Unlike Fetch, the range path keeps the last slot per date.
	if day.Description != "clear sky" || day.Temperature != 13 {
		t.Errorf("expected last slot (13, clear sky), got (%d, %s)", day.Temperature, day.Description)
	}
	if day.Icon != "http://openweathermap.org/img/wn/01d@2x.png" {
		t.Errorf("unexpected icon url %q", day.Icon)
	}

	if _, ok := days.Get("2025-06-05"); ok {
		t.Error("date outside the requested range should be absent")
	}
}

func TestFetchRangeOutsideHorizon(t *testing.T) {
	c := newTestClient(t, serveJSON(seriesPayload))

	days, err := c.FetchRange(context.Background(), 44.5, -72.8, "2025-07-01", "2025-07-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("expected empty mapping beyond the provider horizon, got %d entries", len(days))
	}
}
