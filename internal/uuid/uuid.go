// Package uuid provides record identifier generation.
package uuid

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// UUID v4 format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
// where y is one of [8, 9, a, b] (variant bits)
var uuidV4Regex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// Generator produces new record ids. Tests swap in deterministic generators.
type Generator func() string

// New generates a new UUID v4.
func New() string {
	return uuid.New().String()
}

// NewUnique returns an id from gen that taken reports as unused.
// A nil gen falls back to New.
func NewUnique(gen Generator, taken func(string) bool) string {
	if gen == nil {
		gen = New
	}
	for {
		id := gen()
		if id != "" && !taken(id) {
			return id
		}
	}
}

// IsValid checks if a string is a valid UUID v4.
// Legacy record ids are not UUIDs; this only describes ids minted here.
func IsValid(s string) bool {
	return uuidV4Regex.MatchString(s)
}

// Validate returns an error if the string is not a valid UUID v4.
func Validate(s string) error {
	if !IsValid(s) {
		return fmt.Errorf("invalid UUID v4 format: %q", s)
	}
	return nil
}
