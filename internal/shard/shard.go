// Package shard provides shard suffix generation for time-bumped partition spaces.
package shard

import (
	"errors"
	"strconv"
	"strings"

	"github.com/twmb/murmur3"
)

// MaxSpaceBits bounds the address space Space will enumerate (2^24 suffixes).
const MaxSpaceBits = 24

// ErrSpaceTooLarge is returned when a suffix space is too large to enumerate.
var ErrSpaceTooLarge = errors.New("shard: address space too large to enumerate")

// Hash returns the 32-bit murmur3 hash of a unique value.
func Hash(unique string) uint32 {
	return murmur3.Sum32([]byte(unique))
}

// Suffix computes the shard suffix for a unique value.
// With chars=0, there is a single partition and the suffix is empty.
// With chars>0, the hash is reduced modulo radix^chars (radix = 2^charBits)
// and rendered as chars base-radix digits, left-padded with '0'.
func Suffix(unique string, charBits, chars int) string {
	if chars <= 0 {
		return ""
	}
	h := uint64(Hash(unique))
	if bits := charBits * chars; bits < 32 {
		h %= uint64(1) << bits
	}
	return pad(strconv.FormatUint(h, 1<<charBits), chars)
}

// Size returns the number of suffixes in a space, or 0 when it overflows
// MaxSpaceBits.
func Size(charBits, chars int) int {
	bits := charBits * chars
	if bits > MaxSpaceBits {
		return 0
	}
	return 1 << bits
}

// Space enumerates every suffix of a space in ascending order.
// With chars=0, the space is the single empty suffix.
func Space(charBits, chars int) ([]string, error) {
	if chars <= 0 {
		return []string{""}, nil
	}
	n := Size(charBits, chars)
	if n == 0 {
		return nil, ErrSpaceTooLarge
	}
	radix := 1 << charBits
	suffixes := make([]string, n)
	for i := 0; i < n; i++ {
		suffixes[i] = pad(strconv.FormatUint(uint64(i), radix), chars)
	}
	return suffixes, nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
