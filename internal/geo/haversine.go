// Package geo computes great-circle distances on a spherical Earth.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius. Treating the Earth as a sphere
// leaves up to ~0.5% error against the ellipsoid.
const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether p has finite coordinates inside the lat/lon ranges.
func Valid(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance returns the haversine distance between a and b in kilometers.
// ok is false, and nothing is computed, when either point is not Valid.
func Distance(a, b Point) (km float64, ok bool) {
	if !Valid(a) || !Valid(b) {
		return 0, false
	}
	return Haversine(a, b), true
}

// Haversine assumes both points are valid.
func Haversine(a, b Point) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Asin(math.Sqrt(h))
	return c * EarthRadiusKm
}

// Round2 rounds km to two decimal places, half away from zero.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
