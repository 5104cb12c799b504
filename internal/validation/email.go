package validation

import (
	"errors"
	"fmt"
	"net/mail"
)

const maxEmailLength = 254

var (
	ErrEmailTooLong = errors.New("email address is too long (max 254 characters)")
	ErrEmailFormat  = errors.New("invalid email address format")
)

// ValidateEmail checks a bare address such as "ada@example.com". Forms that
// net/mail accepts but that are not a plain address, like "Ada <ada@example.com>",
// are rejected.
func ValidateEmail(email string) error {
	// RFC 5321: local part max 64, domain max 255, total max 254 with @
	if len(email) > maxEmailLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailFormat
	}

	return nil
}

func Email(field string, value any) string {
	s, ok := stringOf(value)
	if ok && ValidateEmail(s) != nil {
		return fmt.Sprintf("The %s field must be a valid email address.", label(field))
	}
	return ""
}
