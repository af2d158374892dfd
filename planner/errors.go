package planner

import "errors"

var (
	// ErrValidation indicates bad caller input (manual slot bounds, unknown
	// state or strategy). The call fails synchronously and no state is
	// mutated.
	ErrValidation = errors.New("validation failed")

	// ErrProviderUnavailable indicates the price provider failed or returned
	// a malformed payload; the planning cycle for the affected day aborts.
	ErrProviderUnavailable = errors.New("price provider unavailable")

	// ErrConfigurationMissing indicates the planner lacks settings (area,
	// currency) required to start a cycle at all.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrTimezoneResolution indicates the configured area code does not map
	// to a known timezone.
	ErrTimezoneResolution = errors.New("timezone resolution failed")
)
