// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`\D+`)
	mobileRe  = regexp.MustCompile(`^\d{8,15}$`)
	partnerRe = regexp.MustCompile(`^\d{10}$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// NormalizeMobile strips whitespace from a mobile number and reports whether
// the remainder is 8-15 digits.
func NormalizeMobile(mobile string) (string, bool) {
	normalized := strings.Join(strings.Fields(mobile), "")
	return normalized, mobileRe.MatchString(normalized)
}

// NormalizePartnerMobile validates a bare 10-digit number and prefixes the
// fixed country code used for partner accounts.
func NormalizePartnerMobile(mobile string) (string, bool) {
	if !partnerRe.MatchString(mobile) {
		return "", false
	}
	return "+91" + mobile, true
}

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}
