package types

import "errors"

// Store lifecycle and validation errors.
var (
	// ErrNotInitialized is returned by every data operation invoked before
	// Initialize has completed, or after Close.
	ErrNotInitialized = errors.New("database not initialized")

	// ErrInvalidRange is returned when a range name is not one of
	// day, week, month, year, all.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidRetention is returned by ClearOldData for a non-positive
	// day count.
	ErrInvalidRetention = errors.New("olderThanDays must be greater than 0")
)
