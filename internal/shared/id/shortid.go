// Package id generates short, URL-safe public identifiers of the form
// "prefix_XXXXXXXXXXXX".
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12
)

const (
	PrefixUser = "usr"
	// PrefixGrant marks credit actions created by an administrator.
	PrefixGrant = "grant"
	// PrefixConsume marks credit actions created by metered API usage.
	PrefixConsume = "use"
)

// Generate returns a cryptographically random base62 string. A non-positive
// length falls back to DefaultLength.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	base := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return FormatWithPrefix(prefix, s), nil
}

// FormatWithPrefix joins prefix and shortID. An empty shortID yields "".
func FormatWithPrefix(prefix, shortID string) string {
	if shortID == "" {
		return ""
	}
	return prefix + "_" + shortID
}

// ParsePrefixedID splits on the first underscore.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	prefix, shortID, ok := strings.Cut(prefixedID, "_")
	if !ok {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return prefix, shortID, nil
}

func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, _, err := ParsePrefixedID(prefixedID)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	return nil
}

func NewUserSID() (string, error) {
	return GenerateWithPrefix(PrefixUser, DefaultLength)
}

func NewGrantReference() (string, error) {
	return GenerateWithPrefix(PrefixGrant, DefaultLength)
}

func NewConsumeReference() (string, error) {
	return GenerateWithPrefix(PrefixConsume, DefaultLength)
}
