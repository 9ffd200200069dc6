// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package films extracts filming location records from locations.list style datasets.
package films

import (
	"github.com/jcodagnone/filmloc/spatial"
)

// Record is a (title, year, location) triple recovered from one dataset line.
type Record struct {
	Title    string `json:"title"`
	Year     string `json:"year"`
	Location string `json:"location"`
}

// ResolvedRecord is a Record plus the coordinates of its location, if any.
type ResolvedRecord struct {
	Record
	// Point is nil when the location could not be resolved.
	Point *spatial.Point `json:"point,omitempty"`
}

// Resolved reports whether the record carries coordinates.
func (r *ResolvedRecord) Resolved() bool {
	return r.Point != nil
}
