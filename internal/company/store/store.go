// Package store persists companies. Both implementations report uniqueness
// violations as ErrBUIDTaken or ErrEmailTaken, which wrap sentinel.ErrAlreadyUsed.
package store

import (
	"fmt"
	"strings"

	"xup/pkg/platform/sentinel"
)

var (
	ErrBUIDTaken  = fmt.Errorf("buid %w", sentinel.ErrAlreadyUsed)
	ErrEmailTaken = fmt.Errorf("email %w", sentinel.ErrAlreadyUsed)
)

func emailKey(email string) string {
	return strings.ToLower(email)
}
