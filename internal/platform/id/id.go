// Package id generates short URL-safe identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random version 4 UUID encoded as 26 lowercase base32
// characters.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// WithPrefix returns a generator producing ids such as "c-<id>".
func WithPrefix(prefix string) func() (string, error) {
	return func() (string, error) {
		value, err := NewID()
		if err != nil {
			return "", err
		}
		return prefix + value, nil
	}
}
