// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultName is the catalog name builds use when they do not pick one.
const DefaultName Name = "libs"

var (
	// ErrInvalidName is the sentinel wrapped by InvalidNameError.
	ErrInvalidName = errors.New("invalid catalog name")
	// ErrInvalidAlias is the sentinel wrapped by InvalidAliasError.
	ErrInvalidAlias = errors.New("invalid catalog alias")

	namePattern  = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)
	aliasPattern = regexp.MustCompile(`^[a-z][A-Za-z0-9_.-]*$`)

	// reservedPrefixes cannot start a library alias because the generated
	// accessor type already exposes members with these names.
	reservedPrefixes = map[string]bool{
		"bundles":    true,
		"versions":   true,
		"plugins":    true,
		"extensions": true,
		"class":      true,
		"convention": true,
	}
)

type (
	// Name identifies a catalog within one build (e.g. "libs").
	Name string

	// Alias is a catalog entry key in canonical hyphen form (e.g. "some-plugin").
	Alias string

	// InvalidNameError is returned when a Name is not a valid identifier segment.
	InvalidNameError struct {
		Value Name
	}

	// InvalidAliasError is returned when an alias cannot be normalized.
	InvalidAliasError struct {
		Value  string
		Reason string
	}
)

// String returns the catalog name.
func (n Name) String() string { return string(n) }

// Capitalized returns the name with its first rune upper-cased ("libs" -> "Libs").
func (n Name) Capitalized() string {
	return Capitalize(string(n))
}

// IsValid reports whether the name is a valid identifier segment.
func (n Name) IsValid() (bool, []error) {
	if !namePattern.MatchString(string(n)) {
		return false, []error{&InvalidNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid catalog name %q: must match %s", e.Value, namePattern)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// Error implements the error interface.
func (e *InvalidAliasError) Error() string {
	return fmt.Sprintf("invalid alias %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidAlias for errors.Is() compatibility.
func (e *InvalidAliasError) Unwrap() error { return ErrInvalidAlias }

// String returns the canonical alias.
func (a Alias) String() string { return string(a) }

// Segments splits the alias on '-' ("some-plugin" -> ["some", "plugin"]).
func (a Alias) Segments() []string {
	return strings.Split(string(a), "-")
}

// Dotted returns the accessor form of the alias ("some-plugin" -> "some.plugin").
func (a Alias) Dotted() string {
	return strings.ReplaceAll(string(a), "-", ".")
}

// NormalizeAlias converts an alias written with '.', '_' or '-' separators
// into canonical hyphen form, rejecting empty segments.
func NormalizeAlias(raw string) (Alias, error) {
	if !aliasPattern.MatchString(raw) {
		return "", &InvalidAliasError{Value: raw, Reason: "must start with a lowercase letter and contain only letters, digits, '-', '_' or '.'"}
	}
	normalized := strings.NewReplacer(".", "-", "_", "-").Replace(raw)
	for _, seg := range strings.Split(normalized, "-") {
		if seg == "" {
			return "", &InvalidAliasError{Value: raw, Reason: "empty segment"}
		}
	}
	return Alias(normalized), nil
}

// normalizeLibraryAlias additionally rejects reserved first segments.
func normalizeLibraryAlias(raw string) (Alias, error) {
	a, err := NormalizeAlias(raw)
	if err != nil {
		return "", err
	}
	if first := a.Segments()[0]; reservedPrefixes[first] {
		return "", &InvalidAliasError{Value: raw, Reason: fmt.Sprintf("%q is reserved", first)}
	}
	return a, nil
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
