// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Domora", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Password exercises the full complexity policy: length plus the
four required character classes.
*/
func TestValidator_Password(t *testing.T) {
	tests := []struct {
		name     string
		password string
		isValid  bool
	}{
		{"strong_password", "Str0ng!Pass", true},
		{"all_classes_minimum_length", "Aa1!aaaa", true},
		{"too_short", "Aa1!aaa", false},
		{"missing_uppercase", "weak1!pass", false},
		{"missing_lowercase", "WEAK1!PASS", false},
		{"missing_digit", "Weakk!pass", false},
		{"missing_symbol", "Weak1passs", false},
		{"symbol_outside_allowed_set", "Weak1pass~", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Password("password", tt.password)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Digits covers the fixed-length numeric rule used for national
identity numbers.
*/
func TestValidator_Digits(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		length  int
		isValid bool
	}{
		{"exact_digits", "1234567890123", 13, true},
		{"too_short", "123456789012", 13, false},
		{"too_long", "12345678901234", 13, false},
		{"contains_letter", "12345678901a3", 13, false},
		{"contains_space", "123456789 123", 13, false},
		{"empty", "", 13, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Digits("ucin", tt.value, tt.length)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_OneOf checks membership in a fixed value set.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("gender", "male", "male", "female")
	assert.False(t, v.HasErrors())

	v = &validate.Validator{}
	v.OneOf("gender", "other", "male", "female")
	assert.True(t, v.HasErrors())
}

/*
TestValidator_UUID checks the UUID format rule.
*/
func TestValidator_UUID(t *testing.T) {
	v := &validate.Validator{}
	v.UUID("id", "0190cafe-0000-7000-8000-0123456789ab")
	assert.False(t, v.HasErrors())

	v = &validate.Validator{}
	v.UUID("id", "not-a-uuid")
	assert.True(t, v.HasErrors())
}

/*
TestValidator_MinMaxLen counts Unicode characters, not bytes.
*/
func TestValidator_MinMaxLen(t *testing.T) {
	v := &validate.Validator{}
	v.MinLen("username", "ana", 3).MaxLen("username", strings.Repeat("a", 15), 15)
	assert.False(t, v.HasErrors())

	v = &validate.Validator{}
	v.MinLen("username", "ab", 3)
	assert.True(t, v.HasErrors())

	v = &validate.Validator{}
	v.MaxLen("username", strings.Repeat("a", 16), 15)
	assert.True(t, v.HasErrors())
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules) and that
every failing rule contributes its own detail entry.
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("username", "ana").
		MinLen("username", "ana", 3).
		MaxLen("username", "ana", 15).
		Email("email", "ana@domora.app").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())

	// Multiple failures accumulate
	v = &validate.Validator{}
	err = v.
		Required("username", "").
		Email("email", "nope").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 2)
}
