// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

/*
Package auth implements the user identity and access management layer.

It defines the core domain entity (User) and the logic for registration,
email verification, credential authentication, optional TOTP second factor,
and the session token lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/domora/api/internal/platform/sec"
)

// # Domain Entities

// Gender is the declared gender of an account holder.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User represents a registered member of the Domora platform.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	UCIN         string       `json:"-"` // National identity number. Never serialized.
	DateOfBirth  time.Time    `json:"date_of_birth"`
	Gender       Gender       `json:"gender"`
	Role         sec.UserRole `json:"role"`
	IsVerified   bool         `json:"is_verified"`
	TOTPSecret   string       `json:"-"` // Shared TOTP secret. Omitted for security.
	Enabled2FA   bool         `json:"enabled_2fa"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DisplayName returns the name used when addressing the user in emails.
func (user *User) DisplayName() string {
	if user.FirstName == "" {
		return user.Username
	}
	return user.FirstName
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername           = "username"
	FieldEmail              = "email"
	FieldPassword           = "password"
	FieldNewPassword        = "new_password"
	FieldConfirmNewPassword = "confirm_new_password"
	FieldFirstName          = "first_name"
	FieldLastName           = "last_name"
	FieldUCIN               = "ucin"
	FieldDateOfBirth        = "date_of_birth"
	FieldGender             = "gender"
	FieldToken              = "token"
	FieldOTPCode            = "otp_code"
	FieldAccessToken        = "access_token"
	FieldRefreshToken       = "refresh_token"
	FieldTokenType          = "token_type"
	FieldExpiresIn          = "expires_in"
	FieldUser               = "user"
	FieldMessage            = "message"
)
