package gateway

import (
	"crypto/rand"
	"fmt"
)

// identAlphabet is the 36-symbol alphabet public identifiers are drawn from.
const identAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// identRejectAbove is the largest multiple of len(identAlphabet) that fits
// in a byte. Bytes at or above it are rejected to avoid modulo bias.
const identRejectAbove = 252 // 7 * 36

// GenerateIdentifier returns a random string of length characters drawn
// uniformly from the lowercase-alphanumeric alphabet. It uses rejection
// sampling over crypto/rand, so no symbol is preferred. Uniqueness is the
// caller's responsibility.
func GenerateIdentifier(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid identifier length %d", length)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= identRejectAbove {
				continue
			}
			out = append(out, identAlphabet[int(b)%len(identAlphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
