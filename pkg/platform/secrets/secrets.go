package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"

	dErrors "xup/pkg/domain-errors"
)

// Alphanumeric is the alphabet used for human-enterable codes.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeLength is the length of one-time and linkage codes.
const CodeLength = 6

// Code returns a cryptographically random string of length n drawn uniformly
// from the alphanumeric alphabet.
func Code(n int) (string, error) {
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "code length must be positive")
	}
	max := big.NewInt(int64(len(Alphanumeric)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate code: %w", err)
		}
		out[i] = Alphanumeric[idx.Int64()]
	}
	return string(out), nil
}

// IsCode reports whether s has the shape of a generated code.
func IsCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlnum := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}
