// Package geo has the small amount of spherical geometry the read API needs.
package geo

import "math"

const earthRadiusMeters = 6_371_000

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	sinDPhi := math.Sin((phi2 - phi1) / 2)
	sinDLambda := math.Sin(radians(lon2-lon1) / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(min(h, 1)))
}

// BoundingBoxRadius returns the half-extents in degrees of the box that
// encloses a circle of radiusMeters centred at latitude lat.
func BoundingBoxRadius(lat, radiusMeters float64) (latDeg, lonDeg float64) {
	latDeg = degrees(radiusMeters / earthRadiusMeters)
	return latDeg, latDeg / math.Cos(radians(lat))
}

// ValidLatLon reports whether lat and lon are WGS84 coordinates.
func ValidLatLon(lat, lon float64) bool {
	return math.Abs(lat) <= 90 && math.Abs(lon) <= 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
