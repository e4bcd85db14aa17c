// internal/validators/validators.go
//
// Newsletter field validators.
//
// Context
//   The newsletter form accepts an email address plus an optional name and
//   phone number.  These predicates decide whether a raw value is acceptable
//   before anything leaves the process.  They are pure and total: every input
//   yields a bool, nothing panics, and nothing is mutated.
//
//   A nil name or phone means "not provided".  Callers check those through
//   OptionalName and OptionalPhone, which treat nil as valid.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package validators

import (
	"regexp"
	"strings"
	"unicode"
)

// emailRe accepts one address: dot-atom local part, "@", and a domain of at
// least two labels ending in an alphabetic TLD.
var emailRe = regexp.MustCompile(
	"^[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+(?:\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
		"@(?:[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?\\.)+[A-Za-z]{2,}$",
)

// phoneRe admits an optional leading plus followed by digits and the usual
// separators.  Digit count is checked separately.
var phoneRe = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)

const (
	maxEmailLen    = 254
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// ValidateEmail reports whether value is a single well-formed email address.
func ValidateEmail(value string) bool {
	if value == "" || len(value) > maxEmailLen {
		return false
	}
	return emailRe.MatchString(value)
}

// ValidateUserName reports whether value looks like a person's name: letters
// of any script, combining marks, spaces, and common name punctuation.  At
// least one letter is required, so whitespace-only input is rejected.
func ValidateUserName(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	letters := 0
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.Is(unicode.Mn, r):
			// Combining accents on decomposed input.
		case r == ' ', r == '\'', r == '’', r == '-', r == '.', r == ',':
		default:
			return false
		}
	}
	return letters > 0
}

// ValidatePhoneNumber reports whether value is an international phone number:
// optional "+", 8 to 15 digits, and optional separators.
func ValidatePhoneNumber(value string) bool {
	if !phoneRe.MatchString(value) {
		return false
	}

	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// OptionalName validates a name that may be absent.
func OptionalName(value *string) bool {
	return value == nil || ValidateUserName(*value)
}

// OptionalPhone validates a phone number that may be absent.
func OptionalPhone(value *string) bool {
	return value == nil || ValidatePhoneNumber(*value)
}
