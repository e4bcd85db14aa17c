// internal/validators/validators_test.go
//
// Fixture tables for the newsletter field validators.
//
// Run: go test ./internal/validators -v

package validators

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"x@y.com", true},
		{"first.last+tag@mail.example.org", true},
		{"o'hara@shop.com.br", true},
		{"a@b", false},
		{"", false},
		{"not-an-email", false},
		{"@example.com", false},
		{"user@", false},
		{"user@.com", false},
		{"a@@b.co", false},
		{"a b@c.co", false},
		{"a..b@c.co", false},
		{".a@c.co", false},
		{"a@c.co ", false},
		{"a@-c.co", false},
		{"a@c.co,b@c.co", false},
		{strings.Repeat("a", 250) + "@b.co", false},
	}
	for _, tc := range cases {
		if got := ValidateEmail(tc.in); got != tc.want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateUserName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Jane", true},
		{"Jane Doe", true},
		{"José María", true},
		{"O'Brien", true},
		{"Jean-Luc Picard", true},
		{"Dr. Ana", true},
		{"Zoë", true},
		{"José", true},
		{"", false},
		{"   ", false},
		{"Jane2", false},
		{"007", false},
		{"Ana\tB", false},
		{"Ana\nB", false},
		{"Ana\x00", false},
		{"--", false},
		{"<script>", false},
	}
	for _, tc := range cases {
		if got := ValidateUserName(tc.in); got != tc.want {
			t.Errorf("ValidateUserName(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateUserName_AnyDigitRejected(t *testing.T) {
	for _, d := range "0123456789" {
		for _, base := range []string{"Jane", "Ana Maria", "O'Neil"} {
			for i := 0; i <= len(base); i++ {
				s := base[:i] + string(d) + base[i:]
				if ValidateUserName(s) {
					t.Fatalf("ValidateUserName(%q) = true, want false", s)
				}
			}
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"+12345678901", true},
		{"12345678", true},
		{"+55 (11) 98765-4321", true},
		{"+1 555.123.4567", true},
		{"123456789012345", true},
		{"abc", false},
		{"", false},
		{"+", false},
		{"1234567", false},
		{"1234567890123456", false},
		{"++12345678901", false},
		{"12345678901x", false},
		{"+1 555 CALL NOW", false},
	}
	for _, tc := range cases {
		if got := ValidatePhoneNumber(tc.in); got != tc.want {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOptionalFields(t *testing.T) {
	bad := "x1"
	good := "Jane"
	phone := "+12345678901"

	if !OptionalName(nil) || !OptionalPhone(nil) {
		t.Fatal("nil values must be vacuously valid")
	}
	if OptionalName(&bad) {
		t.Error("OptionalName accepted a digit")
	}
	if !OptionalName(&good) {
		t.Error("OptionalName rejected a plain name")
	}
	if !OptionalPhone(&phone) {
		t.Error("OptionalPhone rejected a valid number")
	}
	if OptionalPhone(&bad) {
		t.Error("OptionalPhone accepted garbage")
	}
}
