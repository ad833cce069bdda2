// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	AccessTokenTTL = 12 * time.Hour

	// RefreshTokenTTL is the duration a refresh token remains valid.
	RefreshTokenTTL = 2 * 24 * time.Hour

	// LinkTokenTTL is the embedded expiry of emailed one-time link tokens
	// (verification and password reset). Deliberately short: the user is
	// expected to act on the email promptly.
	LinkTokenTTL = 30 * time.Minute

	// LinkDecodeMaxAge is the independent decode-time age bound on link
	// tokens, measured from their issue timestamp.
	LinkDecodeMaxAge = 1 * time.Hour

	// LoginFailureThreshold is how many consecutive failures lock an identity out.
	LoginFailureThreshold = 5

	// LoginFailureWindow is the sliding lockout window. Every recorded
	// failure pushes the window forward, so a locked identity stays locked
	// until it goes quiet for the full window.
	LoginFailureWindow = 10 * time.Minute

	// UsernameMinLen and UsernameMaxLen bound the username length.
	UsernameMinLen = 3
	UsernameMaxLen = 15

	// UCINLength is the exact digit count of a national identity number.
	UCINLength = 13
)
