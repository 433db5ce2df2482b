// Package normalizers provides field normalization for matching and blocking
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("ntext", NormalizeText)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
	Register("nwebsite", NormalizeWebsite)
	Register("npostal", NormalizePostalCode)
	Register("remove_punctuation", RemovePunctuation)
	Register("alphanumeric", Alphanumeric)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names return the value
// unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ForField returns the canonical normalized form of a standard customer field.
func ForField(field, value string) string {
	switch field {
	case "email":
		return NormalizeEmail(value)
	case "phone":
		return NormalizePhone(value)
	case "website":
		return NormalizeWebsite(value)
	case "postal_code":
		return NormalizePostalCode(value)
	default:
		return NormalizeText(value)
	}
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeText lowercases, trims, and collapses internal whitespace runs to
// a single space.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return result.String()
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeWebsite strips scheme, www prefix, and trailing slashes so
// "https://www.acme.com/" and "acme.com" compare equal.
func NormalizeWebsite(s string) string {
	s = NormalizeText(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimRight(s, "/")
}

// NormalizePostalCode uppercases and strips whitespace and hyphens, which
// covers both US zip and alphanumeric postal formats.
func NormalizePostalCode(s string) string {
	var result strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
