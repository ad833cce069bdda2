// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

/*
Service layer for the identity and access management system.

It handles everything from user registration and secure password hashing to
the session lifecycle via JWT access/refresh tokens with a Redis-backed
revocation blocklist.

Architecture:

  - Service: Orchestrates business logic (Register, Login, MFA, Recovery).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis (Throttle, Blocklist).
  - Security: Leverages Bcrypt hashing, HS256-signed JWTs, and RFC 6238 TOTP.
*/

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/ctxutil"
	"github.com/domora/api/internal/platform/sec"
)

// # Contracts & Types

// MailSender delivers transactional emails carrying one-time links.
type MailSender interface {
	// EnqueueVerification hands off an email-verification message for delivery.
	EnqueueVerification(to, name, link string, expiryMinutes int) error

	// EnqueuePasswordReset hands off a password-reset message for delivery.
	EnqueuePasswordReset(to, name, link string, expiryMinutes int) error
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, login,
// throttling, or token logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	loginAttempts  LoginAttemptRepository
	tokenBlocklist TokenBlocklistRepository
	sessionTokens  *sec.TokenService
	linkTokens     *sec.LinkTokenService
	secondFactor   *sec.TOTPService
	mailSender     MailSender
	publicBaseURL  string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	attemptRepo LoginAttemptRepository,
	blocklistRepo TokenBlocklistRepository,
	sessionTokens *sec.TokenService,
	linkTokens *sec.LinkTokenService,
	secondFactor *sec.TOTPService,
	mailSender MailSender,
	publicBaseURL string,
) *Service {
	return &Service{
		userRepository: userRepo,
		loginAttempts:  attemptRepo,
		tokenBlocklist: blocklistRepo,
		sessionTokens:  sessionTokens,
		linkTokens:     linkTokens,
		secondFactor:   secondFactor,
		mailSender:     mailSender,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
	}
}

// normalizeEmail canonicalizes an email for lookups and throttle keys.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	UCIN        string
	DateOfBirth time.Time
	Gender      Gender
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member. The uniqueness probe covers
email, username, and national identity number in one combined answer, and the
resulting Conflict never names the colliding field.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity (unverified)
  - error: Conflict (if any identity field exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	email := normalizeEmail(input.Email)

	// Combined uniqueness probe. A single generic Conflict prevents an
	// attacker from learning WHICH identity field is already registered.
	taken, err := service.userRepository.ExistsByIdentity(context, email, input.Username, input.UCIN)
	if err != nil {
		return nil, fmt.Errorf("auth_service_identity_probe_failed: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("An account with these details already exists")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Username:     input.Username,
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		UCIN:         input.UCIN,
		DateOfBirth:  input.DateOfBirth,
		Gender:       input.Gender,
		Role:         sec.RoleMember,
		IsVerified:   false,
	}

	// Persist the user to the database. The unique constraints catch any
	// race that slipped past the probe and surface the same generic Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Kick off email verification as a best-effort side effect
	service.sendVerificationLink(context, user)

	return user, nil
}

// sendVerificationLink mints a one-time link token and enqueues the
// verification email. Failures are logged, never surfaced: the user can
// always trigger a fresh link later.
func (service *Service) sendVerificationLink(context context.Context, user *User) {
	logger := ctxutil.GetLogger(context)

	token, err := service.linkTokens.Encode(user.Email, sec.LinkPurposeVerifyEmail)
	if err != nil {
		logger.ErrorContext(context, "auth_verification_link_encode_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return
	}

	link := fmt.Sprintf("%s/api/v1/auth/verify/%s", service.publicBaseURL, token)
	if err := service.mailSender.EnqueueVerification(user.Email, user.DisplayName(), link, int(LinkTokenTTL.Minutes())); err != nil {
		logger.ErrorContext(context, "auth_verification_mail_enqueue_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}

/*
RequestEmailVerification (re)sends the verification link for an account.

Description: Used after registration races, lost emails, or an email-address
change that reset the verification flag. Already-verified accounts are a
quiet no-op.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Lookup failures
*/
func (service *Service) RequestEmailVerification(context context.Context, userID string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return nil
	}

	service.sendVerificationLink(context, user)
	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult represents the outcome of a successful credential check.
//
// When TwoFactorRequired is set no tokens are issued: the client must follow
// up on the dedicated second-factor endpoint with a fresh TOTP code.
type LoginResult struct {
	TwoFactorRequired bool
	Email             string
	AccessToken       string
	RefreshToken      string
	User              *User
}

/*
Login validates user credentials and issues security tokens.

Description: The lockout check runs FIRST, before any password hashing, so a
locked identity costs no bcrypt work. Failed lookups and failed password
checks both feed the failure counter and return the same generic message to
prevent account enumeration. An unverified account is reported distinctly and
does NOT count as a failure.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Tokens, or a second-factor challenge marker
  - error: RateLimited, Unauthorized, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	email := normalizeEmail(input.Email)

	// 1. Lockout gate. Runs before any credential evaluation.
	blocked, err := service.loginAttempts.IsBlocked(context, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_lockout_check_failed: %w", err)
	}
	if blocked {
		return nil, apperr.RateLimited(int(LoginFailureWindow.Seconds()))
	}

	// 2. Identity lookup. An unknown email is a counted failure with the
	// same generic message as a wrong password.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		_, _ = service.loginAttempts.RecordFailure(context, email)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// 3. Verification gate. Distinct message, NOT a counted failure: the
	// caller proved nothing wrong, the account just isn't activated yet.
	if !user.IsVerified {
		return nil, apperr.Unauthorized("Email address is not verified")
	}

	// 4. Constant-time password comparison via bcrypt
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		_, _ = service.loginAttempts.RecordFailure(context, email)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// 5. Second-factor branch: withhold tokens until the TOTP code arrives
	if user.Enabled2FA {
		return &LoginResult{TwoFactorRequired: true, Email: user.Email}, nil
	}

	// 6. Success: clear the failure counter and issue the token pair
	if err := service.loginAttempts.Reset(context, email); err != nil {
		return nil, fmt.Errorf("auth_service_lockout_reset_failed: %w", err)
	}

	return service.issueSession(user)
}

/*
LoginWith2FA completes authentication for accounts with the second factor enabled.

Description: Follows the same lockout discipline as Login. A wrong TOTP code
is a counted failure: brute-forcing the six-digit space hits the lockout just
like password guessing would.

Parameters:
  - context: context.Context
  - email: string
  - otpCode: string

Returns:
  - *LoginResult: Issued token pair
  - error: RateLimited, Unauthorized, or internal failures
*/
func (service *Service) LoginWith2FA(context context.Context, email, otpCode string) (*LoginResult, error) {
	email = normalizeEmail(email)

	// 1. Lockout gate, shared with the password step
	blocked, err := service.loginAttempts.IsBlocked(context, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_lockout_check_failed: %w", err)
	}
	if blocked {
		return nil, apperr.RateLimited(int(LoginFailureWindow.Seconds()))
	}

	// 2. Identity lookup
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		_, _ = service.loginAttempts.RecordFailure(context, email)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !user.IsVerified {
		return nil, apperr.Unauthorized("Email address is not verified")
	}

	// 3. The endpoint only serves accounts that actually enrolled
	if !user.Enabled2FA || user.TOTPSecret == "" {
		return nil, apperr.Unauthorized("Two-factor authentication is not enabled for this account")
	}

	// 4. Code check inside the configured skew window
	if !service.secondFactor.VerifyCode(user.TOTPSecret, otpCode) {
		_, _ = service.loginAttempts.RecordFailure(context, email)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// 5. Success: clear the counter and issue tokens
	if err := service.loginAttempts.Reset(context, email); err != nil {
		return nil, fmt.Errorf("auth_service_lockout_reset_failed: %w", err)
	}

	return service.issueSession(user)
}

// issueSession mints the access/refresh token pair for an authenticated user.
func (service *Service) issueSession(user *User) (*LoginResult, error) {
	accessToken, err := service.sessionTokens.GenerateToken(user.ID, user.Email, string(user.Role), AccessTokenTTL, false)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.sessionTokens.GenerateToken(user.ID, user.Email, string(user.Role), RefreshTokenTTL, true)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &LoginResult{
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// # Session Management

// RefreshResult carries a freshly minted access token.
type RefreshResult struct {
	AccessToken string
	ExpiresIn   time.Duration
}

/*
RefreshAccessToken exchanges a valid refresh token for a new access token.

Description: The refresh token itself is NOT rotated; it stays valid until its
own expiry or until revoked via Logout.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *RefreshResult: New access token credentials
  - error: Unauthorized or internal failures
*/
func (service *Service) RefreshAccessToken(context context.Context, refreshToken string) (*RefreshResult, error) {

	// Verify signature, expiry, and token kind
	claims, err := service.sessionTokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// A revoked refresh token is indistinguishable from an invalid one
	revoked, err := service.tokenBlocklist.IsRevoked(context, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_blocklist_check_failed: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The account must still exist; its role may have changed since login
	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	accessToken, err := service.sessionTokens.GenerateToken(user.ID, user.Email, string(user.Role), AccessTokenTTL, false)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_access_token_failed: %w", err)
	}

	return &RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   AccessTokenTTL,
	}, nil
}

/*
Logout revokes the presented session tokens.

Description: Idempotent by design. Each token that still verifies gets its jti
blocklisted for exactly its remaining lifetime; tokens that are already
expired or malformed are silently skipped.

Parameters:
  - context: context.Context
  - accessToken: string (may be empty)
  - refreshToken: string (may be empty)

Returns:
  - error: Blocklist storage failures
*/
func (service *Service) Logout(context context.Context, accessToken, refreshToken string) error {
	for _, tokenString := range []string{accessToken, refreshToken} {
		if tokenString == "" {
			continue
		}

		// An unverifiable token needs no revocation; logout stays idempotent.
		claims, err := service.sessionTokens.VerifyToken(tokenString)
		if err != nil {
			continue
		}

		remaining := time.Until(claims.ExpiresAt.Time)
		if err := service.tokenBlocklist.Revoke(context, claims.ID, remaining); err != nil {
			return fmt.Errorf("auth_service_logout_revoke_failed: %w", err)
		}
	}

	return nil
}

/*
VerifyAccessToken validates an access token for request authentication.

Description: Combines the stateless signature/expiry check with the stateful
revocation lookup. This is the method the authentication middleware consumes.

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - *sec.AuthClaims: Verified, unrevoked claims
  - error: sec.ErrTokenInvalid or blocklist failures
*/
func (service *Service) VerifyAccessToken(context context.Context, tokenString string) (*sec.AuthClaims, error) {
	claims, err := service.sessionTokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := service.tokenBlocklist.IsRevoked(context, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_blocklist_check_failed: %w", err)
	}
	if revoked {
		return nil, sec.ErrTokenInvalid
	}

	return claims, nil
}

// # Email Verification

/*
VerifyEmail confirms a user's email address using a one-time link token.

Description: Idempotent. A token for an already-verified account succeeds
quietly; a token for a vanished account reports as invalid.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: sec.ErrLinkExpired, sec.ErrLinkInvalid, or database errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {

	// Decode enforces signature, double expiry, and the verification purpose.
	// The sec errors pass through untouched so the browser-facing handler
	// can render expired and invalid links differently.
	email, err := service.linkTokens.Decode(token, sec.LinkPurposeVerifyEmail)
	if err != nil {
		return err
	}

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return sec.ErrLinkInvalid
	}

	// Clicking the link twice is fine
	if user.IsVerified {
		return nil
	}

	if err := service.userRepository.MarkVerified(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Mints a one-time reset link and emails it.
NOTE: An unknown email returns success to prevent user enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Link generation failures only
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return nil
	}

	token, err := service.linkTokens.Encode(user.Email, sec.LinkPurposeResetPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_link_encode_failed: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", service.publicBaseURL, token)
	if err := service.mailSender.EnqueuePasswordReset(user.Email, user.DisplayName(), link, int(LinkTokenTTL.Minutes())); err != nil {
		ctxutil.GetLogger(context).ErrorContext(context, "auth_reset_mail_enqueue_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

/*
ConfirmPasswordReset completes the forgot-password flow.

Description: Verifies the one-time token, hashes the new password, updates the
account, and clears any accumulated lockout state so the user can log in
immediately with the new credentials.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Unauthorized (expired or invalid link) or update failures
*/
func (service *Service) ConfirmPasswordReset(context context.Context, token, newPassword string) error {
	email, err := service.linkTokens.Decode(token, sec.LinkPurposeResetPassword)
	if err != nil {
		// Expired links keep their identity: the client can offer a
		// "request a new link" action for this case specifically.
		if errors.Is(err, sec.ErrLinkExpired) {
			return apperr.Unauthorized("Reset link has expired")
		}
		return apperr.Unauthorized("Reset link is invalid")
	}

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return apperr.Unauthorized("Reset link is invalid")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// A successful reset wipes the lockout slate
	_ = service.loginAttempts.Reset(context, user.Email)

	return nil
}
