// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

/*
Package account implements self-service and administrative account management.

It covers the post-authentication surface of the user lifecycle: reading the
own profile, changing the username or email address, deleting accounts, and
the administrative account listing.

# Architecture

The package consumes the [auth.User] entity and defines its own narrow
storage contract; the shared PostgreSQL repository in the auth package
satisfies both.
*/
package account

import (
	"context"

	"github.com/domora/api/internal/users/auth"
)

// # Data Access Contract

// AccountRepository defines the storage operations the account domain needs.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		FindByUsername returns the account holding the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *auth.User: Hydrated entity
		  - error: apperr.NotFound when the username is free, or execution errors
	*/
	FindByUsername(context context.Context, username string) (*auth.User, error)

	/*
		UpdateUsername replaces the account's username.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newUsername: string

		Returns:
		  - error: apperr.Conflict on collision, or execution errors
	*/
	UpdateUsername(context context.Context, userID, newUsername string) error

	/*
		UpdateEmail replaces the account's email address and resets the
		verification flag.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newEmail: string

		Returns:
		  - error: apperr.Conflict on collision, or execution errors
	*/
	UpdateEmail(context context.Context, userID, newEmail string) error

	/*
		Delete permanently removes a user account.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or execution errors
	*/
	Delete(context context.Context, id string) error

	/*
		List returns a page of accounts ordered by creation time.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*auth.User: Page of hydrated entities
		  - error: Execution errors
	*/
	List(context context.Context, limit, offset int) ([]*auth.User, error)
}

// VerificationRequester re-triggers the email verification flow after an
// address change.
type VerificationRequester interface {
	RequestEmailVerification(context context.Context, userID string) error
}

// # Field Identifiers

const (
	FieldUserID = "id"
	FieldLimit  = "limit"
	FieldOffset = "offset"
)
