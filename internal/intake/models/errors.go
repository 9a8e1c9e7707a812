package models

import "errors"

// Error classes for the intake core. Services wrap these with coded domain
// errors; callers distinguish classes with errors.Is.
var (
	// ErrUnknownSection: the caller named a section outside the registry.
	// Always a client-input error, never retried.
	ErrUnknownSection = errors.New("unknown section")

	// ErrMissingSectionData: section name is valid but the payload is absent
	// or null. A request missing its data payload is rejected, never treated
	// as "clear the section".
	ErrMissingSectionData = errors.New("missing section data")

	// ErrIncompleteMinimumData: creation attempted without the minimum
	// viable applicant data. The coded wrapper carries the missing field
	// names so the caller can correct and retry.
	ErrIncompleteMinimumData = errors.New("incomplete minimum applicant data")
)
