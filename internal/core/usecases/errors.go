package usecases

import "errors"

var (
	// ErrPlaceNotFound is returned when a place id matches nothing.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrInvalidQuery is returned for out-of-range coordinates or parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoSource is returned by Sync when no upstream source is configured.
	ErrNoSource = errors.New("no upstream source configured")
)
