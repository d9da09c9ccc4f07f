package storage

import "errors"

// Common storage errors
var (
	// ErrMetadataNotFound indicates that the vault has not been initialized
	ErrMetadataNotFound = errors.New("vault metadata not found")

	// ErrThrottleNotFound indicates that no throttle state has been persisted yet
	ErrThrottleNotFound = errors.New("throttle state not found")

	// ErrSettingsNotFound indicates that settings were never saved
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrEntryNotFound indicates that an entry record was not found
	ErrEntryNotFound = errors.New("entry not found")
)
