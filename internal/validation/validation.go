package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidLocation is the base error for every rejected location. The HTTP layer maps it
// to 400 INVALID_LOCATION.
var ErrInvalidLocation = errors.New("invalid location")

var (
	ErrLocationEmpty        = fmt.Errorf("%w: location is required", ErrInvalidLocation)
	ErrLocationTooShort     = fmt.Errorf("%w: location too short", ErrInvalidLocation)
	ErrLocationTooLong      = fmt.Errorf("%w: location too long", ErrInvalidLocation)
	ErrLocationInvalidChars = fmt.Errorf("%w: location contains invalid characters", ErrInvalidLocation)
)

// ValidateLocation trims the input and enforces length bounds (minLen, maxLen in runes).
// Allowed: Unicode letters and digits, space, comma, hyphen, period, apostrophe.
// Case is preserved; the feed and the cache both see the location as typed.
func ValidateLocation(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	n := 0
	for _, c := range s {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
		n++
	}
	switch {
	case n == 0:
		return "", ErrLocationEmpty
	case minLen > 0 && n < minLen:
		return "", ErrLocationTooShort
	case maxLen > 0 && n > maxLen:
		return "", ErrLocationTooLong
	}
	return s, nil
}

func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
