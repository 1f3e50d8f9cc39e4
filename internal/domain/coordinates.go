package domain

import "math"

// Geographic coordinates in decimal degrees (WGS84).
type Coordinates struct {
	Lat float64
	Lng float64
}

const earthRadiusMeters = 6371000.0

// Meters per degree of latitude. Longitude degrees shrink with latitude,
// so longitude spans must be corrected by cos(lat) before converting.
const MetersPerDegreeLat = earthRadiusMeters * math.Pi / 180

// Valid reports whether the coordinates are well-formed and in range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceMeters returns the great-circle (haversine) distance to other.
// Flat Euclidean degrees drift with latitude and are not acceptable at the
// 50m / 200m thresholds this system operates on.
func (c Coordinates) DistanceMeters(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Rectangular geographic area defined by its south-west and north-east corners.
type BoundingBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// Contains reports whether the point lies inside the box (inclusive edges).
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}
