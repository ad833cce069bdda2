// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

/*
HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle—from account
creation to session management, second-factor enrollment, and recovery.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: RESTful JSON, plus HTML for the browser-facing verification link.
  - Security: Orchestrates JWT issuance and token revocation.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/domora/api/internal/platform/middleware"
	requestutil "github.com/domora/api/internal/platform/request"
	"github.com/domora/api/internal/platform/respond"
	"github.com/domora/api/internal/platform/sec"
	"github.com/domora/api/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Second Factor, Password Reset callbacks).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /signup : Creates a new account and emails a verification link.
//   - POST /login  : Authenticates and returns the token pair (or a 2FA challenge).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Post("/login/2fa", handler.loginWith2FA)
	router.Get("/verify/{token}", handler.verifyEmail)
	router.Post("/password-reset", handler.requestPasswordReset)
	router.Post("/password-reset/confirm", handler.confirmPasswordReset)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Post("/logout", handler.logout)
		r.Post("/2fa/setup", handler.setup2FA)
		r.Post("/2fa/confirm", handler.confirm2FA)
		r.Post("/2fa/disable", handler.disable2FA)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UCIN        string `json:"ucin"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginWith2FARequest struct {
	Email   string `json:"email"`
	OTPCode string `json:"otp_code"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type confirmResetRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type otpCodeRequest struct {
	OTPCode string `json:"otp_code"`
}

// dateOfBirthLayout is the accepted wire format for birth dates.
const dateOfBirthLayout = "2006-01-02"

/*
Signup handles the creation of a new user account.

POST /api/v1/auth/signup

Description: Validates input, performs the combined identity-conflict probe,
persists the new profile, and emails a one-time verification link.

Request:
  - Body: signupRequest (Username, Email, Password, FirstName, LastName, UCIN, DateOfBirth, Gender)

Response:
  - 201: User: Created user profile (unverified)
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: An account with these details already exists
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLen).
		MaxLen(FieldUsername, input.Username, UsernameMaxLen).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password).
		Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		Required(FieldUCIN, input.UCIN).
		Digits(FieldUCIN, input.UCIN, UCINLength).
		Required(FieldDateOfBirth, input.DateOfBirth).
		Required(FieldGender, input.Gender).
		OneOf(FieldGender, input.Gender, string(GenderMale), string(GenderFemale))

	dateOfBirth, err := time.Parse(dateOfBirthLayout, input.DateOfBirth)
	validator.Custom(FieldDateOfBirth, input.DateOfBirth != "" && err != nil, "Must be a valid date (YYYY-MM-DD)")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		UCIN:        input.UCIN,
		DateOfBirth: dateOfBirth,
		Gender:      Gender(input.Gender),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and issues the session token pair.

POST /api/v1/auth/login

Description: Runs the full login discipline (lockout gate, identity lookup,
verification gate, password check). Accounts with the second factor enabled
receive a challenge marker instead of tokens.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access/refresh tokens and user profile, or a 2FA challenge
  - 401: ErrUnauthorized: Invalid credentials or unverified email
  - 429: ErrRateLimited: Identity is locked out
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result.TwoFactorRequired {
		respond.OK(writer, map[string]any{
			FieldMessage: "Two-factor authentication required",
			FieldEmail:   result.Email,
		})
		return
	}

	respond.OK(writer, sessionPayload(result))
}

/*
LoginWith2FA completes a second-factor-gated login.

POST /api/v1/auth/login/2fa

Request:
  - Body: loginWith2FARequest (Email, OTPCode)

Response:
  - 200: Session: Access/refresh tokens and user profile
  - 401: ErrUnauthorized: Invalid code or credentials
  - 429: ErrRateLimited: Identity is locked out
*/
func (handler *Handler) loginWith2FA(writer http.ResponseWriter, request *http.Request) {
	var input loginWith2FARequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldOTPCode, input.OTPCode)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.LoginWith2FA(request.Context(), input.Email, input.OTPCode)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionPayload(result))
}

// sessionPayload shapes a successful login result for the wire.
func sessionPayload(result *LoginResult) map[string]any {
	return map[string]any{
		FieldAccessToken:  result.AccessToken,
		FieldRefreshToken: result.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    int(AccessTokenTTL / time.Second),
		FieldUser:         result.User,
	}
}

/*
VerifyEmail confirms email ownership from the emailed link.

GET /api/v1/auth/verify/{token}

Description: Browser-facing endpoint. Renders an HTML outcome page instead of
JSON, since the caller is a person clicking a link, not an API client.

Response:
  - 200: HTML: Email verified
  - 410: HTML: Link expired, request a new one
  - 400: HTML: Link invalid
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	err := handler.authService.VerifyEmail(request.Context(), token)
	switch {
	case err == nil:
		respond.HTML(writer, http.StatusOK, []byte(verifySuccessPage))
	case errors.Is(err, sec.ErrLinkExpired):
		respond.HTML(writer, http.StatusGone, []byte(verifyExpiredPage))
	case errors.Is(err, sec.ErrLinkInvalid):
		respond.HTML(writer, http.StatusBadRequest, []byte(verifyInvalidPage))
	default:
		respond.Error(writer, request, err)
	}
}

/*
RequestPasswordReset initiates the password recovery flow.

POST /api/v1/auth/password-reset

Description: Emails a one-time reset link if the account exists. The response
is identical either way to prevent user enumeration.

Request:
  - Body: passwordResetRequest (Email)

Response:
  - 200: Success: Generic acknowledgement
  - 400: ErrInvalidJSON: Invalid email format
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordResetRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
ConfirmPasswordReset completes the password recovery flow.

POST /api/v1/auth/password-reset/confirm

Description: Validates the one-time token and applies the new password. The
new password is held to the same complexity policy as registration.

Request:
  - Body: confirmResetRequest (Token, NewPassword, ConfirmNewPassword)

Response:
  - 200: Success: Password updated
  - 400: ErrInvalidJSON: Weak password or validation failure
  - 401: ErrUnauthorized: Expired or invalid reset link
*/
func (handler *Handler) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input confirmResetRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword).
		Custom(FieldConfirmNewPassword, input.NewPassword != input.ConfirmNewPassword, "Passwords do not match")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ConfirmPasswordReset(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: RefreshResponse: New access token credentials
  - 401: ErrUnauthorized: Missing, invalid, or revoked refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	result, err := handler.authService.RefreshAccessToken(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: result.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int(result.ExpiresIn / time.Second),
	})
}

/*
Logout revokes the current session tokens.

POST /api/v1/auth/logout

Description: Blocklists the presented access token's jti, plus the refresh
token's jti when one is included in the body. Idempotent.

Request:
  - Body: logoutRequest (RefreshToken, optional)

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	// The body is optional; a bare logout still revokes the access token.
	var input logoutRequest
	_ = requestutil.DecodeJSON(request, &input)

	accessToken := requestutil.BearerToken(request)

	if err := handler.authService.Logout(request.Context(), accessToken, input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Setup2FA begins second-factor enrollment for the authenticated user.

POST /api/v1/auth/2fa/setup

Response:
  - 200: TOTPEnrollment: Secret, otpauth URI, and QR code
  - 409: ErrConflict: Already enabled
*/
func (handler *Handler) setup2FA(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	enrollment, err := handler.authService.Setup2FA(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, enrollment)
}

/*
Confirm2FA completes second-factor enrollment with a live code.

POST /api/v1/auth/2fa/confirm

Request:
  - Body: otpCodeRequest (OTPCode)

Response:
  - 200: Success: Second factor enabled
  - 401: ErrUnauthorized: Invalid verification code
  - 409: ErrConflict: Already enabled
*/
func (handler *Handler) confirm2FA(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input otpCodeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.OTPCode == "" {
		respond.Error(writer, request, validate.RequiredError(FieldOTPCode, "is required"))
		return
	}

	if err := handler.authService.Confirm2FA(request.Context(), userID, input.OTPCode); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Two-factor authentication enabled",
	})
}

/*
Disable2FA switches the second factor off for the authenticated user.

POST /api/v1/auth/2fa/disable

Response:
  - 200: Success: Second factor disabled
*/
func (handler *Handler) disable2FA(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Disable2FA(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Two-factor authentication disabled",
	})
}

// # Verification Pages
//
// Static HTML shown to the person who clicked the emailed link.

const verifySuccessPage = `<!DOCTYPE html>
<html>
<head><title>Email verified — Domora</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 10vh;">
  <h1>Email verified</h1>
  <p>Your Domora account is now active. You can close this tab and log in.</p>
</body>
</html>`

const verifyExpiredPage = `<!DOCTYPE html>
<html>
<head><title>Link expired — Domora</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 10vh;">
  <h1>This link has expired</h1>
  <p>Verification links are only valid for a short time. Please request a new one.</p>
</body>
</html>`

const verifyInvalidPage = `<!DOCTYPE html>
<html>
<head><title>Invalid link — Domora</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 10vh;">
  <h1>This link is invalid</h1>
  <p>The verification link could not be validated. Please request a new one.</p>
</body>
</html>`
