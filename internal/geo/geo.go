package geo

import "math"

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Locator is anything that sits at a coordinate.
type Locator interface {
	Coordinate() Coordinate
}

// GeodesicDistance returns the spherical law of cosines distance in kilometers.
// It is informational only; searches use PlanarDistance.
func GeodesicDistance(a, b Coordinate) float64 {
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return 0
	}

	radLat1 := math.Pi * a.Lat / 180
	radLat2 := math.Pi * b.Lat / 180
	radTheta := math.Pi * (a.Lon - b.Lon) / 180

	dist := math.Sin(radLat1)*math.Sin(radLat2) +
		math.Cos(radLat1)*math.Cos(radLat2)*math.Cos(radTheta)
	if dist > 1 {
		dist = 1
	}
	dist = math.Acos(dist)
	dist = dist * 180 / math.Pi
	dist = dist * 60 * 1.1515
	return dist * 1.609344
}

// PlanarDistance returns the squared euclidean distance on raw degree values.
// East-west distances are not scaled by latitude.
func PlanarDistance(a, b Coordinate) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}
