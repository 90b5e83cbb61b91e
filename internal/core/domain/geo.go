package domain

import "time"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReferencePoint is the clinic location check-ins are measured against.
// It is fixed at deployment time.
type ReferencePoint struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// LocationSample is a single fix from the device location provider.
type LocationSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// LocationErrorCode classifies provider failures.
type LocationErrorCode string

const (
	LocationUnsupported LocationErrorCode = "unsupported"
	LocationDenied      LocationErrorCode = "denied"
	LocationUnavailable LocationErrorCode = "unavailable"
	LocationTimeout     LocationErrorCode = "timeout"
)

// LocationError is a structured provider failure.
type LocationError struct {
	Code    LocationErrorCode `json:"code"`
	Message string            `json:"message"`
}

func (e *LocationError) Error() string {
	if e.Message == "" {
		return "location " + string(e.Code)
	}
	return "location " + string(e.Code) + ": " + e.Message
}

// Terminal reports whether no further samples can be expected.
func (e *LocationError) Terminal() bool {
	return e.Code == LocationUnsupported
}

// LocationResult is one item of a location subscription: either a sample or an error.
type LocationResult struct {
	Sample *LocationSample
	Err    *LocationError
}

// LocationState is what the geofence monitor knows about the device position.
// At steady state exactly one holds: Loading, Error != nil, or coordinates set.
type LocationState struct {
	Loading   bool           `json:"loading"`
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Accuracy  *float64       `json:"accuracy"`
	Error     *LocationError `json:"error"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s LocationState) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// GeofenceSnapshot is the monitor output consumers read.
type GeofenceSnapshot struct {
	Location       LocationState `json:"location"`
	Admissible     bool          `json:"admissible"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
