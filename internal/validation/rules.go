package validation

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Errors maps a request field to its failure messages.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fail returns Errors holding a single message for field.
func Fail(field, message string) Errors {
	return Errors{field: {message}}
}

// Invalid reports a value for field that has the wrong type.
func Invalid(field string) Errors {
	return Fail(field, fmt.Sprintf("The %s field is invalid.", label(field)))
}

// A Rule returns a failure message for value, or "" when value passes.
// Rules other than Required pass on absent values.
type Rule func(field string, value any) string

type FieldCheck struct {
	name  string
	value any
	rules []Rule
}

func Field(name string, value any, rules ...Rule) FieldCheck {
	return FieldCheck{name: name, value: value, rules: rules}
}

// Check runs the rules of every field. A field stops at its first failing
// rule. The result is nil when all fields pass, otherwise Errors.
func Check(fields ...FieldCheck) error {
	errs := Errors{}
	for _, f := range fields {
		for _, rule := range f.rules {
			if msg := rule(f.name, f.value); msg != "" {
				errs.Add(f.name, msg)
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// stringOf returns the string held by value and whether one is present.
func stringOf(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case *string:
		if v == nil {
			return "", false
		}
		return *v, *v != ""
	}
	return "", false
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string, *string:
		s, ok := stringOf(v)
		return ok && strings.TrimSpace(s) != ""
	case *int64:
		return v != nil
	case int64:
		return v != 0
	}
	return true
}

func Required(field string, value any) string {
	if !present(value) {
		return fmt.Sprintf("The %s field is required.", label(field))
	}
	return ""
}

// Length counts the Unicode code points of s after NFC normalization.
func Length(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

func MaxLength(n int) Rule {
	return func(field string, value any) string {
		s, ok := stringOf(value)
		if ok && Length(s) > n {
			return fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), n)
		}
		return ""
	}
}

func OneOf(allowed ...string) Rule {
	return func(field string, value any) string {
		s, ok := stringOf(value)
		if ok && !slices.Contains(allowed, s) {
			return fmt.Sprintf("The selected %s is invalid.", label(field))
		}
		return ""
	}
}

// Confirmed requires value to equal its confirmation field.
func Confirmed(confirmation string) Rule {
	return func(field string, value any) string {
		return ConfirmedWith(confirmation, fmt.Sprintf("The %s field confirmation does not match.", label(field)))(field, value)
	}
}

// ConfirmedWith is Confirmed with a custom failure message.
func ConfirmedWith(confirmation, message string) Rule {
	return func(field string, value any) string {
		s, ok := stringOf(value)
		if ok && s != confirmation {
			return message
		}
		return ""
	}
}

// DateLayouts are the accepted formats for date fields.
var DateLayouts = []string{time.DateOnly, time.RFC3339}

func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range DateLayouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func Date(field string, value any) string {
	s, ok := stringOf(value)
	if !ok {
		return ""
	}
	if _, err := ParseDate(s); err != nil {
		return fmt.Sprintf("The %s field must be a valid date.", label(field))
	}
	return ""
}

func Positive(field string, value any) string {
	var n int64
	switch v := value.(type) {
	case *int64:
		if v == nil {
			return ""
		}
		n = *v
	case int64:
		n = v
	default:
		return ""
	}
	if n < 1 {
		return fmt.Sprintf("The selected %s is invalid.", label(field))
	}
	return ""
}
