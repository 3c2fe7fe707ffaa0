package domain

import "errors"

var (
	// ErrCorruptRecord is returned when a persisted collection is not valid JSON
	// for its record type. The stored value is left as is.
	ErrCorruptRecord = errors.New("corrupt persisted record")
	// ErrStoreConflict is returned when a read-modify-write lost too many races.
	ErrStoreConflict = errors.New("concurrent modification, retries exhausted")
)
