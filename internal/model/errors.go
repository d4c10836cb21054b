package model

import "errors"

// Sentinel errors for network-facing operations.
var (
	// ErrEmptyAPIBase is returned when the configured API base URL is empty.
	ErrEmptyAPIBase = errors.New("API base URL is empty")
	// ErrNoZoneEndpoint is returned when every zone directory endpoint failed.
	ErrNoZoneEndpoint = errors.New("no zone directory endpoint responded")
	// ErrNoLocation is returned when the IP geolocation payload has no usable coordinates.
	ErrNoLocation = errors.New("geolocation response has no coordinates")
	// ErrNoZoneMatch is returned when reverse geocoding found no zone for the coordinates.
	ErrNoZoneMatch = errors.New("no zone matches the given coordinates")
)
