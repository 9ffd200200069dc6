// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package render presents ranked records as an HTML map or a spreadsheet.
package render

// Bucket groups distances for display.
type Bucket string

// Distance buckets, named after the marker color used on the map.
const (
	BucketNear   Bucket = "green"
	BucketMedium Bucket = "yellow"
	BucketFar    Bucket = "red"
)

// Bucket bounds in km; both bounds belong to the medium bucket.
const (
	NearLimitKm   = 1500.0
	MediumLimitKm = 3000.0
)

// Classify returns the bucket of a distance in km.
func Classify(km float64) Bucket {
	switch {
	case km < NearLimitKm:
		return BucketNear
	case km <= MediumLimitKm:
		return BucketMedium
	default:
		return BucketFar
	}
}

// Color is the marker fill color.
func (b Bucket) Color() string {
	return string(b)
}
