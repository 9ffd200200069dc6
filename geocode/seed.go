// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string            `json:"version"`
	LastUpdated time.Time         `json:"last_updated"`
	Locations   []*CachedLocation `json:"locations"`
}

// ExportJSON writes every cached location, sorted, to a JSON file.
func ExportJSON(repo CacheRepository, filepath string) (int, error) {
	locations, err := repo.ListSorted()
	if err != nil {
		return 0, fmt.Errorf("listing cached locations: %w", err)
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		Locations:   locations,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(locations), nil
}

// ImportJSON loads a seed file written by ExportJSON. Existing locations
// are replaced.
func ImportJSON(repo CacheRepository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the operator
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	for _, l := range seed.Locations {
		if l.Resolved && l.Point == nil {
			return 0, fmt.Errorf("resolved location %q has no point", l.Location)
		}

		if l.Point != nil {
			if err := l.Point.Validate(); err != nil {
				return 0, fmt.Errorf("location %q: %w", l.Location, err)
			}
		}
	}

	if err := repo.BulkInsert(seed.Locations); err != nil {
		return 0, fmt.Errorf("storing seed: %w", err)
	}

	return len(seed.Locations), nil
}
