// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// WGS-84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	wgs84B = (1 - wgs84F) * wgs84A

	vincentyMaxIterations = 200
	vincentyTolerance     = 1e-12
)

// GreatCircleDistance returns the spherical distance between two points in meters.
func GreatCircleDistance(a, b Point) float64 {
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))

	return angle.Radians() * earthRadius
}

// GeodesicDistance returns the distance in meters between two points on the WGS-84
// ellipsoid, using Vincenty's inverse formula. Nearly antipodal points, where the
// iteration does not converge, fall back to GreatCircleDistance.
func GeodesicDistance(a, b Point) float64 {
	if d, ok := vincentyInverse(a, b); ok {
		return d
	}

	return GreatCircleDistance(a, b)
}

// GeodesicDistanceKm is GeodesicDistance expressed in kilometers.
func GeodesicDistanceKm(a, b Point) float64 {
	return GeodesicDistance(a, b) / 1000
}

func vincentyInverse(p1, p2 Point) (float64, bool) {
	l := toRadians(p2.Lng - p1.Lng)
	u1 := math.Atan((1 - wgs84F) * math.Tan(toRadians(p1.Lat)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(toRadians(p2.Lat)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l

	for range vincentyMaxIterations {
		sinLambda, cosLambda := math.Sincos(lambda)

		x := cosU2 * sinLambda
		y := cosU1*sinU2 - sinU1*cosU2*cosLambda

		sinSigma := math.Sqrt(x*x + y*y)
		if sinSigma == 0 {
			// coincident points
			return 0, true
		}

		cosSigma := sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma := math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha := 1 - sinAlpha*sinAlpha

		// equatorial line: cosSqAlpha == 0
		cos2SigmaM := 0.0
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		c := wgs84F / 16 * cosSqAlpha * (4 + wgs84F*(4-3*cosSqAlpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda) > math.Pi {
			return 0, false
		}

		if math.Abs(lambda-prev) > vincentyTolerance {
			continue
		}

		uSq := cosSqAlpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
		bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
		bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
		deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4*
			(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
				bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

		return wgs84B * bigA * (sigma - deltaSigma), true
	}

	return 0, false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
