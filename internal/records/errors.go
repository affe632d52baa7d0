package records

import "errors"

var (
	// ErrClinicIDRequired is returned when an operation is missing its tenant key.
	ErrClinicIDRequired = errors.New("records: clinic id required")

	// ErrRecordNotFound is returned when an id matches no document in either collection.
	ErrRecordNotFound = errors.New("records: record not found")
)
