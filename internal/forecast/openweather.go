package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// OpenWeatherClient implements Client against the OpenWeatherMap
// 5-day/3-hour forecast API.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

func (c *OpenWeatherClient) Name() string {
	return c.name
}

// forecastPayload is the subset of the provider response we consume. Each
// list entry is a 3-hour slot; dt_txt carries "YYYY-MM-DD HH:MM:SS".
type forecastPayload struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

func (c *OpenWeatherClient) fetchSeries(ctx context.Context, lat, lon float64) (forecastPayload, error) {
	var payload forecastPayload

	if c.apiKey == "" {
		return payload, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return payload, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// Fetch returns the first series slot falling on the target date. The
// temperature is rounded up to the next whole degree.
func (c *OpenWeatherClient) Fetch(ctx context.Context, lat, lon float64, date string) (Snapshot, error) {
	payload, err := c.fetchSeries(ctx, lat, lon)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}

	for _, slot := range payload.List {
		if slotDate(slot.DtTxt) != date {
			continue
		}
		snap := Snapshot{Temperature: ceil(slot.Main.Temp)}
		if len(slot.Weather) > 0 {
			snap.Conditions = slot.Weather[0].Description
		}
		return snap, nil
	}

	return Snapshot{}, fmt.Errorf("%w: no entry for %s", ErrNotAvailable, date)
}

// FetchRange collects one forecast per date in [from, to]. Dates compare
// lexicographically, which is valid for the fixed YYYY-MM-DD layout. When a
// date has several 3-hour slots the last one wins.
func (c *OpenWeatherClient) FetchRange(ctx context.Context, lat, lon float64, from, to string) (DayForecasts, error) {
	payload, err := c.fetchSeries(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}

	days := DayForecasts{}
	for _, slot := range payload.List {
		d := slotDate(slot.DtTxt)
		if d < from || d > to {
			continue
		}

		f := DayForecast{Temperature: ceil(slot.Main.Temp)}
		if len(slot.Weather) > 0 {
			f.Description = slot.Weather[0].Description
			f.Icon = iconURL(slot.Weather[0].Icon)
		}
		days.Set(d, f)
	}

	return days, nil
}

// slotDate extracts the date portion of a "YYYY-MM-DD HH:MM:SS" timestamp.
func slotDate(dtTxt string) string {
	if i := strings.IndexByte(dtTxt, ' '); i >= 0 {
		return dtTxt[:i]
	}
	return dtTxt
}

func iconURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("http://openweathermap.org/img/wn/%s@2x.png", code)
}

// ceil rounds a provider temperature up to the nearest whole degree. The
// warm bias is deliberate and relied on by the change predicate.
func ceil(t float64) int {
	return int(math.Ceil(t))
}
