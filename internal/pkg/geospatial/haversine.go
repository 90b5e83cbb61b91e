package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Within reports whether distanceMeters falls inside a radius. The boundary
// itself counts as inside.
func Within(distanceMeters, radiusMeters float64) bool {
	return distanceMeters <= radiusMeters
}

// OffsetNorth returns the latitude reached by moving meters due north of lat.
// Used by the location simulator and tests to place points at known distances.
func OffsetNorth(lat, meters float64) float64 {
	return lat + toDeg(meters/EarthRadiusMeters)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
