// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/filmloc/utils/htmlutils"
)

// DefaultNominatimURL is the public OpenStreetMap instance. Its usage policy
// requires an identifying User-Agent and at most one request per second.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// ProviderNominatim identifies results produced by NominatimGeocoder.
const ProviderNominatim = "nominatim"

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a geocoder for the instance at baseURL. The
// client is expected to carry the User-Agent header; a nil client gets a
// plain one with a 10 second timeout.
func NewNominatimGeocoder(baseURL string, client *http.Client) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	PlaceRank   int    `json:"place_rank"`
}

func (g *NominatimGeocoder) Geocode(query string) (*GeocodingResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "empty query"}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequest(http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, ClassifyHTTPError(resp.StatusCode, htmlutils.Summarize(resp.Header.Get("Content-Type"), body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if len(places) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for location: %s", query),
		}
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "parsing latitude", Err: err}
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "parsing longitude", Err: err}
	}

	return &GeocodingResult{
		Latitude:    lat,
		Longitude:   lng,
		Confidence:  placeRankConfidence(place.PlaceRank),
		Provider:    ProviderNominatim,
		DisplayName: place.DisplayName,
	}, nil
}

// placeRankConfidence maps the place rank (4 country ... 30 building) to a
// confidence level.
func placeRankConfidence(rank int) string {
	switch {
	case rank >= 26:
		return ConfidenceHigh
	case rank >= 16:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
