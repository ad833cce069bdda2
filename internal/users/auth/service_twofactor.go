// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package auth

import (
	"context"
	"fmt"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/sec"
)

// # Second-Factor Enrollment
//
// Enrollment is a two-step handshake. Setup generates and persists a pending
// shared secret but leaves the factor OFF; Confirm proves the authenticator
// app actually holds the secret before flipping it on. An account can never
// end up locked behind a second factor its owner cannot produce.

/*
Setup2FA begins second-factor enrollment for the authenticated user.

Description: Generates a fresh shared secret, persists it as pending, and
returns the onboarding material (otpauth URI plus QR code). Calling Setup
again before confirming simply rotates the pending secret.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *sec.TOTPEnrollment: Secret, provisioning URI, and QR code PNG
  - error: Conflict (already enabled) or storage failures
*/
func (service *Service) Setup2FA(context context.Context, userID string) (*sec.TOTPEnrollment, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Enabled2FA {
		return nil, apperr.Conflict("Two-factor authentication is already enabled")
	}

	enrollment, err := service.secondFactor.GenerateEnrollment(user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_2fa_enrollment_failed: %w", err)
	}

	if err := service.userRepository.SetTOTPSecret(context, user.ID, enrollment.Secret); err != nil {
		return nil, fmt.Errorf("auth_service_2fa_secret_store_failed: %w", err)
	}

	return enrollment, nil
}

/*
Confirm2FA completes enrollment by proving possession of the shared secret.

Description: Verifies a live code against the pending secret and only then
flips enabled2fa on. From the next login onward the password step returns a
second-factor challenge instead of tokens.

Parameters:
  - context: context.Context
  - userID: string
  - otpCode: string

Returns:
  - error: Conflict, ValidationError, Unauthorized, or storage failures
*/
func (service *Service) Confirm2FA(context context.Context, userID, otpCode string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if user.Enabled2FA {
		return apperr.Conflict("Two-factor authentication is already enabled")
	}

	if user.TOTPSecret == "" {
		return apperr.ValidationError("Two-factor setup has not been started")
	}

	if !service.secondFactor.VerifyCode(user.TOTPSecret, otpCode) {
		return apperr.Unauthorized("Invalid verification code")
	}

	if err := service.userRepository.Enable2FA(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_2fa_enable_failed: %w", err)
	}

	return nil
}

/*
Disable2FA switches the second factor off for the authenticated user.

Description: Clears both the flag and the stored secret. Idempotent: disabling
an account that never enrolled is a no-op.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Storage failures
*/
func (service *Service) Disable2FA(context context.Context, userID string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !user.Enabled2FA && user.TOTPSecret == "" {
		return nil
	}

	if err := service.userRepository.Disable2FA(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_2fa_disable_failed: %w", err)
	}

	return nil
}
