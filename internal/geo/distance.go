// Package geo has the spherical math used by backends that can't run geo
// queries natively
package geo

import (
	"math"

	"bitwise74/rental-api/internal/model"
)

// EarthRadius is the mean earth radius in meters, the same value mongo uses
// for $centerSphere conversions
const EarthRadius = 6378100.0

// Distance returns the great circle distance between a and b in meters
func Distance(a, b model.GeoPoint) float64 {
	lat1 := radians(a.Lat())
	lat2 := radians(b.Lat())
	dLat := lat2 - lat1
	dLng := radians(b.Lng() - a.Lng())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

func Within(center, p model.GeoPoint, radius float64) bool {
	return Distance(center, p) <= radius
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
