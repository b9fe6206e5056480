package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/forecast"
)

type fakeForecast struct {
	ranges map[string]forecast.DayForecasts // keyed by crag name via lat lookup
	byLat  map[float64]string
	err    error
}

func (f *fakeForecast) Fetch(_ context.Context, _, _ float64, _ string) (forecast.Snapshot, error) {
	return forecast.Snapshot{}, errors.New("not implemented")
}

func (f *fakeForecast) FetchRange(_ context.Context, lat, _ float64, _, _ string) (forecast.DayForecasts, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ranges[f.byLat[lat]], nil
}

func writeCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	dir := t.TempDir()
	index := `{"Montreal": ["crags.json"]}`
	if err := os.WriteFile(filepath.Join(dir, "originCities.json"), []byte(index), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Mkdir(filepath.Join(dir, "distances"), 0755); err != nil {
		t.Fatal(err)
	}
	crags := `[
		{"name": "Near Crag", "lat": 1.0, "lon": -70.0, "distance": 200, "climbs": 50},
		{"name": "Far Crag", "lat": 2.0, "lon": -71.0, "distance": 201, "climbs": 120},
		{"name": "Close Crag", "lat": 3.0, "lon": -72.0, "distance": 80, "climbs": 30}
	]`
	if err := os.WriteFile(filepath.Join(dir, "distances", "crags.json"), []byte(crags), 0644); err != nil {
		t.Fatal(err)
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

func singleDay(temp int) forecast.DayForecasts {
	days := forecast.DayForecasts{}
	days.Set("2025-06-01", forecast.DayForecast{Temperature: temp, Description: "clear sky"})
	return days
}

func newFakeForecast() *fakeForecast {
	return &fakeForecast{
		ranges: map[string]forecast.DayForecasts{},
		byLat: map[float64]string{
			1.0: "Near Crag",
			2.0: "Far Crag",
			3.0: "Close Crag",
		},
	}
}

func TestFindDistanceBoundaryIsInclusive(t *testing.T) {
	svc := NewService(writeCatalog(t), newFakeForecast())

	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-05",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// hours=2 means a 200 cutoff: distance 200 stays, 201 goes.
	if len(crags) != 2 {
		t.Fatalf("expected 2 crags, got %d", len(crags))
	}
	if crags[0].Name != "Near Crag" || crags[1].Name != "Close Crag" {
		t.Errorf("catalog order not preserved: %s, %s", crags[0].Name, crags[1].Name)
	}
}

func TestFindSingleDayTemperatureFilter(t *testing.T) {
	fc := newFakeForecast()
	fc.ranges["Near Crag"] = singleDay(15)  // inside the band
	fc.ranges["Close Crag"] = singleDay(25) // above the band

	svc := NewService(writeCatalog(t), fc)

	minTemp, maxTemp := 10, 20
	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-01",
		MinTemp:  &minTemp,
		MaxTemp:  &maxTemp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(crags) != 1 || crags[0].Name != "Near Crag" {
		t.Fatalf("expected only Near Crag, got %+v", crags)
	}
}

func TestFindSingleDayBandBoundsAreInclusive(t *testing.T) {
	fc := newFakeForecast()
	fc.ranges["Near Crag"] = singleDay(10)
	fc.ranges["Close Crag"] = singleDay(20)

	svc := NewService(writeCatalog(t), fc)

	minTemp, maxTemp := 10, 20
	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-01",
		MinTemp:  &minTemp,
		MaxTemp:  &maxTemp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 2 {
		t.Errorf("band bounds must be inclusive, got %d crags", len(crags))
	}
}

func TestFindMissingDayExcludedUnderFilter(t *testing.T) {
	fc := newFakeForecast()
	fc.ranges["Near Crag"] = singleDay(15)
	// Close Crag has no forecast for the requested day at all.

	svc := NewService(writeCatalog(t), fc)

	minTemp, maxTemp := 10, 20
	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-01",
		MinTemp:  &minTemp,
		MaxTemp:  &maxTemp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 1 || crags[0].Name != "Near Crag" {
		t.Fatalf("crag without forecast must be excluded, got %+v", crags)
	}
}

func TestFindMultiDayNeverFiltersByTemperature(t *testing.T) {
	fc := newFakeForecast()
	fc.ranges["Near Crag"] = singleDay(40)
	fc.ranges["Close Crag"] = singleDay(-10)

	svc := NewService(writeCatalog(t), fc)

	minTemp, maxTemp := 10, 20
	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-05",
		MinTemp:  &minTemp,
		MaxTemp:  &maxTemp,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 2 {
		t.Errorf("multi-day requests must ignore the temperature band, got %d crags", len(crags))
	}
}

func TestFindForecastFailureKeepsCrag(t *testing.T) {
	fc := newFakeForecast()
	fc.err = forecast.ErrNotAvailable

	svc := NewService(writeCatalog(t), fc)

	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Montreal",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-05",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 2 {
		t.Fatalf("expected crags kept with empty forecasts, got %d", len(crags))
	}
	if len(crags[0].Weather) != 0 {
		t.Errorf("expected empty forecast mapping, got %+v", crags[0].Weather)
	}
}

func TestFindValidation(t *testing.T) {
	svc := NewService(writeCatalog(t), newFakeForecast())

	cases := []FindRequest{
		{Origin: "Montreal", DateFrom: "2025-06-01", DateTo: "2025-06-05"},
		{Hours: 2, DateFrom: "2025-06-01", DateTo: "2025-06-05"},
		{Hours: 2, Origin: "Montreal", DateTo: "2025-06-05"},
		{Hours: 2, Origin: "Montreal", DateFrom: "2025-06-01"},
	}
	for i, req := range cases {
		if _, err := svc.Find(context.Background(), req); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestFindUnknownOrigin(t *testing.T) {
	svc := NewService(writeCatalog(t), newFakeForecast())

	crags, err := svc.Find(context.Background(), FindRequest{
		Hours:    2,
		Origin:   "Atlantis",
		DateFrom: "2025-06-01",
		DateTo:   "2025-06-05",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crags) != 0 {
		t.Errorf("unknown origin must yield an empty list, got %d", len(crags))
	}
}
