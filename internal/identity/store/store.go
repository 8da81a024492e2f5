// Package store persists provisional credentials. Every implementation makes
// CreateIfAbsent a single atomic step: expired records for the same identifier
// or code are evicted, then the insert either succeeds or reports which key
// is held by a live record.
package store

import (
	"fmt"

	"xup/pkg/platform/sentinel"
)

var (
	// ErrIdentifierTaken means a live credential already exists for the identifier.
	ErrIdentifierTaken = fmt.Errorf("identifier %w", sentinel.ErrAlreadyUsed)
	// ErrCodeTaken means the one-time code collides with a live credential.
	ErrCodeTaken = fmt.Errorf("code %w", sentinel.ErrConflict)
)
