// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free-text locations to coordinates, caching and
// throttling the calls made to the external geocoding providers.
package geocode

// Confidence levels reported by the providers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// maxErrorBody is how much of an error response is kept in the error.
const maxErrorBody = 4096

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(query string) (*GeocodingResult, error)
}
