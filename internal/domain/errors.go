package domain

import "errors"

var (
	// ErrNotFound is returned when an external resource or stored row does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateCode is returned when a member's state cannot be resolved to a postal code
	ErrInvalidStateCode = errors.New("invalid state code")

	// ErrMemberNotFound is returned when a vote references a member that is not in the store
	ErrMemberNotFound = errors.New("member not found")

	// ErrBillNotFound is returned when a bill referenced by its natural key is not in the store
	ErrBillNotFound = errors.New("bill not found")

	// ErrRollCallNotFound is returned when a roll call referenced by its natural key is not in the store
	ErrRollCallNotFound = errors.New("roll call not found")

	// ErrNoDistrict is returned when a ZIP code cannot be resolved to a congressional district
	ErrNoDistrict = errors.New("no district found")
)
