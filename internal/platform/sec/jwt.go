// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing,
// One-Time Link Tokens, TOTP) from the domain logic. It acts as an
// Infrastructure service injected into the Application layer via small
// interfaces defined where they are consumed.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Session Token Errors

var (
	// ErrTokenInvalid is the single outcome for every session-token
	// verification failure. Signature mismatch, expiry, and decode errors
	// all collapse into it so callers cannot distinguish which check
	// failed (no information leakage).
	ErrTokenInvalid = errors.New("sec: token is invalid or expired")

	// ErrAccessTokenRequired is returned when a refresh token is presented
	// where an access token is required.
	ErrAccessTokenRequired = errors.New("sec: an access token is required")

	// ErrRefreshTokenRequired is returned when an access token is presented
	// where a refresh token is required.
	ErrRefreshTokenRequired = errors.New("sec: a refresh token is required")
)

// AuthClaims represents the payload embedded inside a session JWT.
//
// # Why custom claims?
//
// By embedding the UserID, Email, and Role directly inside the JWT,
// the authentication middleware can reconstruct the active user context
// WITHOUT querying the database on every single API request. The jti
// (RegisteredClaims.ID) doubles as the revocation key.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	Email  string `json:"eml"`
	Role   string `json:"rol"`

	// IsRefresh distinguishes refresh tokens from access tokens. Endpoints
	// are scoped to exactly one kind via the narrowing verifiers below.
	IsRefresh bool `json:"refresh"`
}

// TokenService handles generation and verification of session JWTs using HS256.
//
// The signing secret is server-held, process-wide configuration loaded once
// at startup.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from the configured secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: jwt secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

/*
GenerateToken mints a signed session token for a user.

Description: Builds the claim set (identity, expiry, fresh jti, kind flag)
and signs it with the server-held HS256 secret.

Parameters:
  - userID: string
  - email: string
  - role: string
  - timeToLive: time.Duration
  - isRefresh: bool (refresh-token kind flag)

Returns:
  - string: Signed compact JWT
  - error: Signing failures
*/
func (service *TokenService) GenerateToken(userID, email, role string, timeToLive time.Duration, isRefresh bool) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:    userID,
		Email:     email,
		Role:      role,
		IsRefresh: isRefresh,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

/*
VerifyToken checks the signature and validity of a session JWT string.

Description: Rejects on signature mismatch, past expiry, or decode failure.
All three outcomes collapse into [ErrTokenInvalid].

Parameters:
  - tokenString: string

Returns:
  - *AuthClaims: Verified claims
  - error: ErrTokenInvalid on any verification failure
*/
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyAccessToken narrows [TokenService.VerifyToken] to access tokens only.
// A valid refresh token presented here is rejected with [ErrAccessTokenRequired].
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh {
		return nil, ErrAccessTokenRequired
	}
	return claims, nil
}

// VerifyRefreshToken narrows [TokenService.VerifyToken] to refresh tokens only.
// A valid access token presented here is rejected with [ErrRefreshTokenRequired].
func (service *TokenService) VerifyRefreshToken(tokenString string) (*AuthClaims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh {
		return nil, ErrRefreshTokenRequired
	}
	return claims, nil
}
