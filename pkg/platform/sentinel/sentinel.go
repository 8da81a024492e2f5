package sentinel

import "errors"

// Sentinel errors for storage facts. Company and credential stores return these
// (optionally wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: no record matches the lookup key
//   - ErrConflict: a generated value (code, id) collided with a live record
//   - ErrAlreadyUsed: a unique business field (buid, email, identifier) is taken
//   - ErrExpired: the record exists but its lifetime has elapsed
//   - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAlreadyUsed = errors.New("already used")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
