package security

import (
	"strings"
	"unicode"
)

// PolicyError carries every rule the candidate password broke, so the
// API can report them all at once instead of one per attempt.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

const minPasswordLength = 8

// A short list is enough to stop the worst offenders; anything fancier
// belongs in an external breach-corpus service.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"admin123":    {},
	"letmein1":    {},
	"welcome1":    {},
	"sunshine":    {},
	"football":    {},
	"princess":    {},
	"dragon123":   {},
}

// ValidatePassword checks a candidate password against the strength
// rules: minimum length, not purely numeric, not a known common
// password, and not too similar to any of the caller's own attributes
// (username, email, names).
func ValidatePassword(password string, userAttributes ...string) error {
	var reasons []string

	if len(password) < minPasswordLength {
		reasons = append(reasons, "password must be at least 8 characters long")
	}

	if isAllDigits(password) {
		reasons = append(reasons, "password cannot be entirely numeric")
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		reasons = append(reasons, "password is too common")
	}

	for _, attr := range userAttributes {
		if tooSimilar(password, attr) {
			reasons = append(reasons, "password is too similar to your personal information")
			break
		}
	}

	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}

	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// tooSimilar flags passwords that contain, or are contained in, a user
// attribute. Email local parts count too: "sam.doe@x.com" should block
// "sam.doe".
func tooSimilar(password, attr string) bool {
	attr = strings.TrimSpace(strings.ToLower(attr))
	p := strings.ToLower(password)

	if len(attr) < 4 {
		return false
	}

	parts := []string{attr}

	if local, _, found := strings.Cut(attr, "@"); found && len(local) >= 4 {
		parts = append(parts, local)
	}

	for _, part := range parts {
		if strings.Contains(p, part) || strings.Contains(part, p) {
			return true
		}
	}

	return false
}
