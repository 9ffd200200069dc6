// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "rate limit error type",
			err:  &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit exceeded"},
			want: true,
		},
		{
			name: "error message contains rate limit",
			err:  errors.New("rate limit exceeded"),
			want: true,
		},
		{
			name: "error message contains too many requests",
			err:  errors.New("too many requests"),
			want: true,
		},
		{
			name: "error message contains 429",
			err:  errors.New("nominatim returned status 429"),
			want: true,
		},
		{
			name: "other error type",
			err:  &GeocodingError{Type: ErrorTypeNotFound, Message: "not found"},
			want: false,
		},
		{
			name: "unrelated error",
			err:  errors.New("some other error"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "quota exceeded error type",
			err:  &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "denied"},
			want: true,
		},
		{
			name: "google over query limit",
			err:  errors.New("google maps status: OVER_QUERY_LIMIT"),
			want: true,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("geocoding: %w", &GeocodingError{Type: ErrorTypeQuotaExceeded}),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "timeout error type",
			err:  &GeocodingError{Type: ErrorTypeTimeout, Message: "timed out"},
			want: true,
		},
		{
			name: "deadline exceeded message",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "client timeout message",
			err:  errors.New("Client.Timeout exceeded while awaiting headers"),
			want: true,
		},
		{
			name: "other type",
			err:  &GeocodingError{Type: ErrorTypeNetworkError},
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsTimeoutError)
}

func TestIsFatalError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "unavailable",
			err:  &GeocodingError{Type: ErrorTypeUnavailable},
			want: true,
		},
		{
			name: "access denied",
			err:  ClassifyHTTPError(403, ""),
			want: true,
		},
		{
			name: "rate limited is transient",
			err:  ClassifyHTTPError(429, ""),
			want: false,
		},
		{
			name: "server error is transient",
			err:  ClassifyHTTPError(503, ""),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsFatalError)
}

func TestIsPermanentError(t *testing.T) {
	tests := []errorCheckTestCase{
		{
			name: "no match",
			err:  &GeocodingError{Type: ErrorTypeNotFound},
			want: true,
		},
		{
			name: "rejected query",
			err:  &GeocodingError{Type: ErrorTypeInvalidRequest},
			want: true,
		},
		{
			name: "rate limited",
			err:  ClassifyHTTPError(429, ""),
			want: false,
		},
		{
			name: "server error",
			err:  ClassifyHTTPError(500, ""),
			want: false,
		},
		{
			name: "timeout",
			err:  &GeocodingError{Type: ErrorTypeTimeout},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("not found"),
			want: false,
		},
	}

	runErrorCheckTest(t, tests, IsPermanentError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantType   ErrorType
	}{
		{
			name:       "429 too many requests",
			statusCode: 429,
			wantType:   ErrorTypeRateLimit,
		},
		{
			name:       "403 forbidden",
			statusCode: 403,
			body:       "blocked by usage policy",
			wantType:   ErrorTypeQuotaExceeded,
		},
		{
			name:       "401 unauthorized",
			statusCode: 401,
			wantType:   ErrorTypeQuotaExceeded,
		},
		{
			name:       "400 bad request",
			statusCode: 400,
			wantType:   ErrorTypeInvalidRequest,
		},
		{
			name:       "404 not found",
			statusCode: 404,
			wantType:   ErrorTypeNotFound,
		},
		{
			name:       "503 service unavailable",
			statusCode: 503,
			wantType:   ErrorTypeNetworkError,
		},
		{
			name:       "502 bad gateway",
			statusCode: 502,
			wantType:   ErrorTypeNetworkError,
		},
		{
			name:       "504 gateway timeout",
			statusCode: 504,
			wantType:   ErrorTypeNetworkError,
		},
		{
			name:       "500 internal server error",
			statusCode: 500,
			wantType:   ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyHTTPError(tt.statusCode, tt.body)
			if got.Type != tt.wantType {
				t.Errorf("ClassifyHTTPError() type = %v, want %v", got.Type, tt.wantType)
			}

			if tt.body != "" && got.Err == nil {
				t.Error("ClassifyHTTPError() dropped the response body")
			}
		})
	}
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
	}{
		{
			name:     "unknown host",
			err:      &url.Error{Op: "Get", URL: "http://nowhere.invalid", Err: &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}},
			wantType: ErrorTypeUnavailable,
		},
		{
			name:     "connection refused",
			err:      &url.Error{Op: "Get", URL: "http://127.0.0.1:1", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}},
			wantType: ErrorTypeUnavailable,
		},
		{
			name:     "deadline",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: context.DeadlineExceeded},
			wantType: ErrorTypeTimeout,
		},
		{
			name:     "reset while reading",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}},
			wantType: ErrorTypeNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTransportError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("ClassifyTransportError() type = %v, want %v", got.Type, tt.wantType)
			}

			if !errors.Is(got, tt.err) {
				t.Error("ClassifyTransportError() should wrap the transport error")
			}
		})
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	innerErr := errors.New("inner error")
	geoErr := &GeocodingError{
		Type:    ErrorTypeNotFound,
		Message: "location not found",
		Err:     innerErr,
	}

	if !errors.Is(geoErr, innerErr) {
		t.Error("errors.Is should find wrapped error")
	}

	if !errors.Is(geoErr.Unwrap(), innerErr) {
		t.Error("Unwrap should return inner error")
	}

	if got := geoErr.Error(); got != "location not found: inner error" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorTypeString(t *testing.T) {
	if got := ErrorTypeUnavailable.String(); got != "unavailable" {
		t.Errorf("String() = %q, want unavailable", got)
	}

	if got := ErrorType(42).String(); got != "ErrorType(42)" {
		t.Errorf("String() = %q", got)
	}
}
