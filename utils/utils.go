// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

// Package utils holds small formatting helpers shared by the commands and renderers.
package utils

import (
	"math"
	"strconv"
)

// FormatInt renders n with comma thousand separators.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // sign
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}

// RoundKm rounds a distance to two decimals, the precision shown to users.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// FormatKm renders a distance rounded to two decimals, without trailing zeros.
func FormatKm(km float64) string {
	return strconv.FormatFloat(RoundKm(km), 'f', -1, 64)
}
