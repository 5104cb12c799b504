package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCollectsFirstFailurePerField(t *testing.T) {
	err := Check(
		Field("status", "", Required, OneOf("OPEN", "ACTIVE")),
		Field("content", strings.Repeat("a", 1001), Required, MaxLength(1000)),
		Field("title", "Write tests", Required),
	)
	require.Error(t, err)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, []string{"The status field is required."}, errs["status"])
	assert.Equal(t, []string{"The content field must not be greater than 1000 characters."}, errs["content"])
	assert.NotContains(t, errs, "title")
}

func TestCheckPasses(t *testing.T) {
	var description *string
	err := Check(
		Field("status", "ACTIVE", Required, OneOf("OPEN", "ACTIVE")),
		Field("description", description, MaxLength(10)),
	)
	assert.NoError(t, err)
}

func TestOneOf(t *testing.T) {
	rule := OneOf("OPEN", "ACTIVE", "COMPLETE", "SKIPPED")
	assert.Empty(t, rule("status", "SKIPPED"))
	assert.Equal(t, "The selected status is invalid.", rule("status", "DONE"))
	assert.Equal(t, "The selected status is invalid.", rule("status", "open"))
}

func TestMaxLengthCountsNormalizedCodePoints(t *testing.T) {
	// e + combining acute is two code points, one after NFC.
	decomposed := strings.Repeat("e\u0301", 1000)
	assert.Equal(t, 1000, Length(decomposed))
	assert.Empty(t, MaxLength(1000)("content", decomposed))
	assert.NotEmpty(t, MaxLength(1000)("content", decomposed+"x"))

	emoji := strings.Repeat("🎯", 1000)
	assert.Empty(t, MaxLength(1000)("content", emoji))
}

func TestRequiredTreatsWhitespaceAsMissing(t *testing.T) {
	blank := "   "
	assert.NotEmpty(t, Required("content", blank))
	assert.NotEmpty(t, Required("content", &blank))
	assert.NotEmpty(t, Required("content", nil))

	var parentID *int64
	assert.NotEmpty(t, Required("parent_id", parentID))
	assert.Equal(t, "The parent id field is required.", Required("parent_id", parentID))
}

func TestConfirmed(t *testing.T) {
	assert.Empty(t, Confirmed("secret-horse-battery")("password", "secret-horse-battery"))
	assert.Equal(t, "The password field confirmation does not match.",
		Confirmed("other")("password", "secret-horse-battery"))
}

func TestConfirmedWith(t *testing.T) {
	rule := ConfirmedWith("secret-horse-battery", "Password confirmation does not match.")
	assert.Empty(t, rule("password", "secret-horse-battery"))
	assert.Equal(t, "Password confirmation does not match.", rule("password", "secret-horse-batter"))
}

func TestDate(t *testing.T) {
	assert.Empty(t, Date("due_date", "2026-01-31"))
	assert.Empty(t, Date("due_date", "2026-01-31T10:00:00Z"))
	assert.NotEmpty(t, Date("due_date", "31/01/2026"))
}

func TestPositive(t *testing.T) {
	zero := int64(0)
	one := int64(1)
	var missing *int64
	assert.NotEmpty(t, Positive("parent_id", &zero))
	assert.Empty(t, Positive("parent_id", &one))
	assert.Empty(t, Positive("parent_id", missing))
}

func TestFail(t *testing.T) {
	err := Fail("parent_id", "Parent comment must be a root comment for this goal.")
	assert.Equal(t, []string{"Parent comment must be a root comment for this goal."}, err["parent_id"])
	assert.Contains(t, err.Error(), "parent_id")
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("mypassword-is-long"), ErrPasswordCommon)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.NoError(t, ValidatePassword("correct-horse-battery"))

	// Twelve characters, but more than twelve bytes
	assert.NoError(t, ValidatePassword("ééééééééééé1"))
	// 25 three-byte runes exceed the bcrypt limit
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("€", 25)), ErrPasswordTooLong)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.ErrorIs(t, ValidateEmail("Ada <ada@example.com>"), ErrEmailFormat)
	assert.ErrorIs(t, ValidateEmail(strings.Repeat("a", 250)+"@x.io"), ErrEmailTooLong)
	assert.Equal(t, "The email field must be a valid email address.", Email("email", "nope"))
}
