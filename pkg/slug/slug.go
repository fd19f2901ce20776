// Package slug derives URL-safe identifiers from titles. Manuscripts and
// articles keep separate slug namespaces, so uniqueness probing stays with
// the caller and only the base transformation lives here.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

// Make lowercases the title, collapses every run of non-alphanumeric
// characters into a single hyphen and trims leading/trailing hyphens.
func Make(title string) string {
	s := strings.ToLower(title)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// MakeUnique returns the first candidate derived from title that exists
// reports false for, trying "foo", "foo-1", "foo-2", ...
func MakeUnique(title string, exists func(candidate string) (bool, error)) (string, error) {
	base := Make(title)
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
