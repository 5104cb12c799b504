package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	// bcrypt silently ignores everything past 72 bytes
	maxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword enforces NIST guidance: a minimum length in characters,
// the bcrypt byte limit and a block list of common patterns.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return ErrPasswordCommon
		}
	}

	return nil
}

func Password(field string, value any) string {
	s, ok := stringOf(value)
	if !ok {
		return ""
	}
	if err := ValidatePassword(s); err != nil {
		return fmt.Sprintf("The %s is invalid: %s.", label(field), err.Error())
	}
	return ""
}
