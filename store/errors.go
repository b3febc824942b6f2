package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist or is deleted (has TTL <= now).
	ErrNotFound = errors.New("entitymanager: record not found")

	// ErrUnknownEntity is returned when no table is registered for an entity
	// and the store has no default table.
	ErrUnknownEntity = errors.New("entitymanager: no table for entity")
)
