package shortcode

import (
	"errors"
	"fmt"
	"math"
)

// Alphabet is the base62 symbol set, ordered digits, lowercase, uppercase.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(Alphabet))

var (
	ErrInvalidSymbol = errors.New("invalid base62 symbol")
	ErrOverflow      = errors.New("base62 value overflows uint64")
)

// Encode converts a number to its base62 representation, most significant
// symbol first. Encode(0) is "0".
func Encode(num uint64) string {
	if num == 0 {
		return Alphabet[:1]
	}

	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for num > 0 {
		i--
		buf[i] = Alphabet[num%base]
		num /= base
	}

	return string(buf[i:])
}

// Decode converts a base62 string back to a number.
func Decode(encoded string) (uint64, error) {
	if encoded == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidSymbol)
	}

	var num uint64
	for i := 0; i < len(encoded); i++ {
		idx := indexOf(encoded[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q at position %d", ErrInvalidSymbol, encoded[i], i)
		}
		if num > (math.MaxUint64-uint64(idx))/base {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, encoded)
		}
		num = num*base + uint64(idx)
	}

	return num, nil
}

// IsValid reports whether every byte of s belongs to the alphabet.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if indexOf(s[i]) < 0 {
			return false
		}
	}
	return true
}

func indexOf(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 36
	default:
		return -1
	}
}
