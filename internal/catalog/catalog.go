package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Crag is one static catalog entry: a climbing location with its precomputed
// driving distance from the origin the containing dataset belongs to.
// Datasets are produced offline by cmd/cragdist and never mutated at runtime.
type Crag struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance float64 `json:"distance"`
	Climbs   int     `json:"climbs"`
}

// Catalog resolves origin cities to their crag datasets. The directory holds
// an originCities.json index mapping city name to dataset filenames, plus a
// distances/ subdirectory with the datasets themselves.
type Catalog struct {
	dir     string
	origins map[string][]string
}

// Load reads the origin index from dir.
func Load(dir string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, "originCities.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read origin index: %w", err)
	}

	origins := make(map[string][]string)
	if err := json.Unmarshal(data, &origins); err != nil {
		return nil, fmt.Errorf("failed to parse origin index: %w", err)
	}

	return &Catalog{dir: dir, origins: origins}, nil
}

// CragsFor returns every crag reachable from the given origin city, in
// dataset order. Unknown origins yield an empty list. A dataset file that
// fails to load is logged and skipped rather than failing the whole lookup.
func (c *Catalog) CragsFor(origin string) []Crag {
	var crags []Crag
	for _, filename := range c.origins[origin] {
		path := filepath.Join(c.dir, "distances", filename)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("catalog: error loading %s: %v", filename, err)
			continue
		}

		var entries []Crag
		if err := json.Unmarshal(data, &entries); err != nil {
			log.Printf("catalog: error parsing %s: %v", filename, err)
			continue
		}
		crags = append(crags, entries...)
	}
	return crags
}

// Origins lists the known origin cities.
func (c *Catalog) Origins() []string {
	names := make([]string, 0, len(c.origins))
	for name := range c.origins {
		names = append(names, name)
	}
	return names
}
