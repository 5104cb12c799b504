package validation

import (
	"errors"
	"strings"
)

// ValidateName validates a display name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if Length(trimmed) > 255 {
		return errors.New("name is too long (max 255 characters)")
	}

	return nil
}

func Name(field string, value any) string {
	s, ok := stringOf(value)
	if !ok {
		return ""
	}
	if err := ValidateName(s); err != nil {
		return "The " + label(field) + " is invalid: " + err.Error() + "."
	}
	return ""
}
