// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocoder_Geocode(t *testing.T) {
	var gotQuery, gotFormat, gotLimit, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotLimit = r.URL.Query().Get("limit")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"34.0536909","lon":"-118.242766","display_name":"Los Angeles, California, United States","place_rank":16}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL+"/", srv.Client())

	got, err := g.Geocode("Los Angeles, California, USA")
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "Los Angeles, California, USA", gotQuery)
	assert.Equal(t, "jsonv2", gotFormat)
	assert.Equal(t, "1", gotLimit)

	assert.InDelta(t, 34.0536909, got.Latitude, 1e-9)
	assert.InDelta(t, -118.242766, got.Longitude, 1e-9)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
	assert.Equal(t, ProviderNominatim, got.Provider)
	assert.Equal(t, "Los Angeles, California, United States", got.DisplayName)
}

func TestNominatimGeocoder_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType ErrorType
	}{
		{name: "no match", status: http.StatusOK, body: `[]`, wantType: ErrorTypeNotFound},
		{name: "throttled", status: http.StatusTooManyRequests, body: "slow down", wantType: ErrorTypeRateLimit},
		{name: "blocked", status: http.StatusForbidden, body: "missing user agent", wantType: ErrorTypeQuotaExceeded},
		{name: "server error", status: http.StatusServiceUnavailable, wantType: ErrorTypeNetworkError},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantType: ErrorTypeUnknown},
		{name: "bad latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"0"}]`, wantType: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewNominatimGeocoder(srv.URL, srv.Client()).Geocode("Somewhere")
			require.Error(t, err)

			var geoErr *GeocodingError
			require.True(t, errors.As(err, &geoErr))
			assert.Equal(t, tt.wantType, geoErr.Type)
		})
	}
}

func TestNominatimGeocoder_BlockPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html><head><title>Access blocked</title><style>h1{}</style></head>
<body><h1>Access blocked</h1><p>See the usage policy.</p></body></html>`))
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, srv.Client()).Geocode("Somewhere")
	require.Error(t, err)
	assert.True(t, IsFatalError(err))
	assert.Contains(t, err.Error(), "Access blocked")
	assert.NotContains(t, err.Error(), "<title>")
}

func TestNominatimGeocoder_EmptyQuery(t *testing.T) {
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, srv.Client()).Geocode("  ")
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestNominatimGeocoder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewNominatimGeocoder(url, nil).Geocode("Paris")
	require.Error(t, err)
	assert.True(t, IsFatalError(err))
}

func TestPlaceRankConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, placeRankConfidence(30))
	assert.Equal(t, ConfidenceHigh, placeRankConfidence(26))
	assert.Equal(t, ConfidenceMedium, placeRankConfidence(16))
	assert.Equal(t, ConfidenceLow, placeRankConfidence(4))
}
