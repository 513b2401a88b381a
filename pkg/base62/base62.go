// Package base62 implements positional base-62 encoding of non-negative
// integers over the alphabet 0-9, a-z, A-Z.
package base62

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(alphabet))

var (
	// ErrInvalidCharacter is returned when a string contains a character
	// outside the base-62 alphabet.
	ErrInvalidCharacter = errors.New("invalid base62 character")
	// ErrOverflow is returned when a decoded value doesn't fit in uint64.
	ErrOverflow = errors.New("base62 value overflows uint64")
)

// Encode converts n to its base-62 string representation, most significant
// digit first. Encode(0) returns "0". The encoding is injective: distinct
// inputs always produce distinct strings.
func Encode(n uint64) string {
	if n == 0 {
		return string(alphabet[0])
	}

	buf := make([]byte, 0, 11)
	for n > 0 {
		buf = append(buf, alphabet[n%base])
		n /= base
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf)
}

// Decode is the inverse of Encode. It fails on an empty string, characters
// outside the alphabet, and values exceeding the uint64 range.
func Decode(s string) (uint64, error) {
	const op = "base62.Decode"

	if s == "" {
		return 0, fmt.Errorf("%s: empty string", op)
	}

	var n uint64
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(alphabet, s[i])
		if v < 0 {
			return 0, fmt.Errorf("%s: %q: %w", op, s[i], ErrInvalidCharacter)
		}

		if n > (math.MaxUint64-uint64(v))/base {
			return 0, fmt.Errorf("%s: %w", op, ErrOverflow)
		}
		n = n*base + uint64(v)
	}

	return n, nil
}

// IsValid reports whether s is non-empty and consists only of base-62
// alphabet characters.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
