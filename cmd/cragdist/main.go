// cragdist precomputes driving distances from an origin city to every crag
// in a GPS dataset, producing the distance files served by the catalog. It
// is a one-off batch tool, not part of the running service.
//
// Usage:
//
//	cragdist -in newyorkAreaNameGPS.json -out data/distances/nycToNY.json -origin "40.7128,-74.0060"
//	cragdist -in ... -out ... -origin "New York, US" (geocoded, needs GOOGLE_API_KEY)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"
	"golang.org/x/time/rate"
)

type crag struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Climbs   int     `json:"climbs"`
	Country  string  `json:"country,omitempty"`
	Distance float64 `json:"distance"`
}

func main() {
	var (
		inPath   = flag.String("in", "", "input JSON file with crag GPS data")
		outPath  = flag.String("out", "", "output JSON file with distances")
		originIn = flag.String("origin", "", `origin as "lat,lon" or a city name to geocode`)
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" || *originIn == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	orsKey := os.Getenv("ORS_API_KEY")
	if orsKey == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	originLat, originLon, err := resolveOrigin(*originIn)
	if err != nil {
		log.Fatalf("failed to resolve origin: %v", err)
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("cannot read input file: %v", err)
	}

	var crags []crag
	if err := json.Unmarshal(data, &crags); err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	// The routing API allows roughly 40 requests per minute on the free
	// tier; stay under it instead of reacting to 429s after the fact.
	limiter := rate.NewLimiter(rate.Every(1500*time.Millisecond), 1)

	ctx := context.Background()
	var out []crag

	for _, c := range crags {
		dist, err := drivingDistance(ctx, client, limiter, orsKey, originLat, originLon, c)
		if err != nil {
			log.Printf("error fetching distance for %s: %v", c.Name, err)
			continue
		}

		c.Distance = math.Round(dist*100) / 100
		out = append(out, c)
	}

	encoded, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		log.Fatalf("cannot encode output: %v", err)
	}
	if err := os.WriteFile(*outPath, encoded, 0644); err != nil {
		log.Fatalf("cannot write output file: %v", err)
	}

	log.Printf("wrote %d crags to %s", len(out), *outPath)
}

// resolveOrigin accepts either "lat,lon" coordinates or a free-form city
// name, which is geocoded via the Google Maps API.
func resolveOrigin(origin string) (float64, float64, error) {
	parts := strings.Split(origin, ",")
	if len(parts) == 2 {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLat == nil && errLon == nil {
			return lat, lon, nil
		}
	}

	geocoder.ApiKey = os.Getenv("GOOGLE_API_KEY")
	if geocoder.ApiKey == "" {
		return 0, 0, fmt.Errorf("origin %q is not lat,lon and GOOGLE_API_KEY is not set", origin)
	}

	location, err := geocoder.Geocoding(geocoder.Address{City: origin})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q: %w", origin, err)
	}
	return location.Latitude, location.Longitude, nil
}

// drivingDistance queries openrouteservice for the driving distance in km,
// retrying transient failures with a short backoff.
func drivingDistance(ctx context.Context, client *http.Client, limiter *rate.Limiter, apiKey string, originLat, originLon float64, c crag) (float64, error) {
	const retries = 3

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return 0, err
		}

		dist, err := requestDistance(ctx, client, apiKey, originLat, originLon, c.Lat, c.Lon)
		if err == nil {
			return dist, nil
		}

		lastErr = err
		log.Printf("attempt %d/%d for %s failed: %v", attempt+1, retries, c.Name, err)
		time.Sleep(time.Duration(attempt+1) * 5 * time.Second)
	}

	return 0, lastErr
}

func requestDistance(ctx context.Context, client *http.Client, apiKey string, fromLat, fromLon, toLat, toLon float64) (float64, error) {
	values := url.Values{}
	values.Set("api_key", apiKey)
	values.Set("start", fmt.Sprintf("%f,%f", fromLon, fromLat))
	values.Set("end", fmt.Sprintf("%f,%f", toLon, toLat))

	u := fmt.Sprintf("https://api.openrouteservice.org/v2/directions/driving-car?%s", values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Features []struct {
			Properties struct {
				Segments []struct {
					Distance float64 `json:"distance"`
				} `json:"segments"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}

	if len(payload.Features) == 0 || len(payload.Features[0].Properties.Segments) == 0 {
		return 0, fmt.Errorf("no route in response")
	}

	// metres to kilometres
	return payload.Features[0].Properties.Segments[0].Distance / 1000, nil
}
