// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package ranking orders resolved records by their distance to a reference point.
package ranking

import (
	"sort"

	"github.com/jcodagnone/filmloc/films"
	"github.com/jcodagnone/filmloc/spatial"
)

// DefaultLimit is the number of records returned when no limit is given.
const DefaultLimit = 10

// RankedRecord is a resolved record annotated with its distance to the
// reference point.
type RankedRecord struct {
	films.ResolvedRecord
	DistanceKm float64 `json:"distance_km"`
}

// Rank returns the limit records closest to ref, nearest first. Unresolved
// records are skipped and records at the same distance keep their input
// order. A limit <= 0 means DefaultLimit. The result is never nil.
func Rank(ref spatial.Point, records []films.ResolvedRecord, limit int) []RankedRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := make([]RankedRecord, 0, len(records))

	for _, r := range records {
		if !r.Resolved() {
			continue
		}

		ranked = append(ranked, RankedRecord{
			ResolvedRecord: r,
			DistanceKm:     spatial.GeodesicDistanceKm(ref, *r.Point),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
