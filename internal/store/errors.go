package store

import "errors"

var (
	// ErrNotFound is returned when a row does not exist, or when a claim
	// lost the race to a concurrent delete.
	ErrNotFound = errors.New("record not found")
)
