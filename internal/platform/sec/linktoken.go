// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # One-Time Link Tokens
//
// Link tokens are short-lived signed payloads embedded in emailed links
// (email verification, password reset). Unlike session tokens, their two
// failure kinds are deliberately kept apart: the browser-facing endpoints
// show a "link expired, request a new one" page for expirations and a
// generic "invalid link" page for tampering.

// LinkPurpose tags a link token with the flow it was minted for.
//
// # Why a purpose tag?
//
// Verification and reset tokens share one codec and one secret. Without the
// tag a verification link would decode successfully at the reset-confirm
// endpoint. Each decode call names the purpose it expects; a mismatch is a
// tamper-equivalent failure.
type LinkPurpose string

const (
	// LinkPurposeVerifyEmail marks tokens minted for the email verification flow.
	LinkPurposeVerifyEmail LinkPurpose = "verify_email"

	// LinkPurposeResetPassword marks tokens minted for the password reset flow.
	LinkPurposeResetPassword LinkPurpose = "reset_password"
)

var (
	// ErrLinkExpired is returned when a link token's embedded expiry has
	// passed, or its issue time exceeds the decode-time max age.
	ErrLinkExpired = errors.New("sec: link token has expired")

	// ErrLinkInvalid is returned for signature mismatch, decode failure,
	// or a purpose mismatch.
	ErrLinkInvalid = errors.New("sec: link token is invalid")
)

// linkClaims is the signed payload of a one-time link token.
type linkClaims struct {
	jwt.RegisteredClaims

	Email   string `json:"eml"`
	Purpose string `json:"pur"`
}

// LinkTokenService encodes and decodes one-time email link tokens.
//
// # Double Expiry
//
// Two independently configured clocks bound a token's life: the expiry
// embedded at encode time (tokenTTL) and a max age measured from the issue
// timestamp at decode time (decodeMaxAge). Both must pass.
type LinkTokenService struct {
	secret       []byte
	issuer       string
	tokenTTL     time.Duration
	decodeMaxAge time.Duration
}

// NewLinkTokenService creates a new LinkTokenService.
//
// # Parameters
//   - secret: Signing secret dedicated to link tokens (distinct from the session secret).
//   - issuer: The 'iss' claim stamped into every token.
//   - tokenTTL: Embedded expiry horizon (minutes, not hours).
//   - decodeMaxAge: Independent decode-time max age measured from 'iat'.
func NewLinkTokenService(secret, issuer string, tokenTTL, decodeMaxAge time.Duration) (*LinkTokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: link secret must not be empty")
	}
	if tokenTTL <= 0 || decodeMaxAge <= 0 {
		return nil, errors.New("sec: link token lifetimes must be positive")
	}
	return &LinkTokenService{
		secret:       []byte(secret),
		issuer:       issuer,
		tokenTTL:     tokenTTL,
		decodeMaxAge: decodeMaxAge,
	}, nil
}

/*
Encode mints an opaque, URL-safe link token for the given email address.

Parameters:
  - email: string (the target account's email)
  - purpose: LinkPurpose (which flow the token belongs to)

Returns:
  - string: Compact signed token, safe to embed in a URL path segment
  - error: Signing failures
*/
func (service *LinkTokenService) Encode(email string, purpose LinkPurpose) (string, error) {
	currentTime := time.Now()
	claims := linkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.tokenTTL)),
		},
		Email:   email,
		Purpose: string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign link token: %w", err)
	}

	return signedToken, nil
}

/*
Decode verifies a link token and extracts the embedded email address.

Description: Verifies signature, embedded expiry, decode-time max age, and
purpose. Expired tokens surface as [ErrLinkExpired]; every other failure
(tampering, wrong purpose, decode error) surfaces as [ErrLinkInvalid].

Parameters:
  - tokenString: string
  - purpose: LinkPurpose (the flow the caller is serving)

Returns:
  - string: The email address the token was minted for
  - error: ErrLinkExpired or ErrLinkInvalid
*/
func (service *LinkTokenService) Decode(tokenString string, purpose LinkPurpose) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &linkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer), jwt.WithIssuedAt())

	if err != nil {
		// Expiry is the one failure users can self-serve (request a new link),
		// so it keeps its own identity instead of collapsing.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrLinkExpired
		}
		return "", ErrLinkInvalid
	}

	claims, ok := token.Claims.(*linkClaims)
	if !ok || !token.Valid {
		return "", ErrLinkInvalid
	}

	// Second, independently configured age bound measured from issue time.
	if claims.IssuedAt == nil || time.Since(claims.IssuedAt.Time) > service.decodeMaxAge {
		return "", ErrLinkExpired
	}

	if claims.Purpose != string(purpose) {
		return "", ErrLinkInvalid
	}

	return claims.Email, nil
}
