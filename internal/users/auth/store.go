// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		ExistsByIdentity reports whether any account already claims the email,
		username, OR national identity number. A single combined answer: the
		caller must not learn which of the three collided.

		Parameters:
		  - context: context.Context
		  - email: string
		  - username: string
		  - ucin: string

		Returns:
		  - bool: true if any identity field is taken
		  - error: Database retrieval failures
	*/
	ExistsByIdentity(context context.Context, email, username, ucin string) (bool, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures (including unique-constraint conflicts)
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		MarkVerified updates the user's status to isverified = true.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error

	/*
		SetTOTPSecret stores a pending TOTP shared secret without enabling the
		second factor. Enablement happens separately after code confirmation.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - secret: string (base32-encoded shared secret)

		Returns:
		  - error: Persistence failures
	*/
	SetTOTPSecret(context context.Context, userID, secret string) error

	/*
		Enable2FA flips the second factor on for an account whose secret is
		already stored.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	Enable2FA(context context.Context, userID string) error

	/*
		Disable2FA switches the second factor off and discards the shared secret.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	Disable2FA(context context.Context, userID string) error
}

// # Login Throttling

// LoginAttemptRepository tracks consecutive authentication failures per identity.
type LoginAttemptRepository interface {

	/*
		RecordFailure increments the failure counter for the identity and
		resets the sliding lockout window.

		Parameters:
		  - context: context.Context
		  - identity: string (normalized email)

		Returns:
		  - int64: The failure count after the increment
		  - error: Storage failures
	*/
	RecordFailure(context context.Context, identity string) (int64, error)

	/*
		IsBlocked reports whether the identity has reached the failure threshold.

		Parameters:
		  - context: context.Context
		  - identity: string

		Returns:
		  - bool: true when login must be refused without evaluating credentials
		  - error: Storage failures
	*/
	IsBlocked(context context.Context, identity string) (bool, error)

	/*
		Reset clears the failure counter after a successful authentication.

		Parameters:
		  - context: context.Context
		  - identity: string

		Returns:
		  - error: Storage failures
	*/
	Reset(context context.Context, identity string) error
}

// # Token Revocation

// TokenBlocklistRepository stores revoked session-token identifiers (jti).
type TokenBlocklistRepository interface {

	/*
		Revoke marks a token identifier as revoked for the given duration.
		The TTL should match the token's remaining lifetime; after natural
		expiry the signature check rejects the token anyway.

		Parameters:
		  - context: context.Context
		  - jti: string
		  - ttl: time.Duration

		Returns:
		  - error: Storage failures
	*/
	Revoke(context context.Context, jti string, ttl time.Duration) error

	/*
		IsRevoked reports whether the token identifier is on the blocklist.

		Parameters:
		  - context: context.Context
		  - jti: string

		Returns:
		  - bool: true when the token must be rejected
		  - error: Storage failures
	*/
	IsRevoked(context context.Context, jti string) (bool, error)
}
