// Package sluggen generates the short identifiers embedded in link URLs.
// Generators are pure: they never consult storage, so uniqueness is the
// caller's responsibility (the store's unique constraint plus a retry).
package sluggen

import (
	"crypto/rand"
	"errors"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Generator produces short URL-safe identifiers.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// base62Generator draws identifiers from crypto/rand over a base62 alphabet.
type base62Generator struct{}

// NewBase62 returns a Generator backed by crypto/rand.
func NewBase62() Generator {
	return &base62Generator{}
}

// Generate returns a random base62 string of exactly length characters.
func (g *base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = base62Chars[int(b[i])%len(base62Chars)]
	}

	return string(b), nil
}
