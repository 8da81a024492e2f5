package email

import (
	"strings"

	"github.com/asaskevich/govalidator"
)

// MaxLength bounds stored addresses.
const MaxLength = 255

// Normalize trims and lower-cases an address so lookups are case-insensitive.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsValid reports whether addr is a syntactically valid address within bounds.
func IsValid(addr string) bool {
	return govalidator.StringLength(addr, "3", "255") && govalidator.IsEmail(addr)
}
