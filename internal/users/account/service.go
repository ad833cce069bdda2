// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/sec"
	"github.com/domora/api/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for account self-service and administration.
type Service struct {
	accountRepository AccountRepository
	verification      VerificationRequester
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	verification VerificationRequester,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		verification:      verification,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
UpdateUsername replaces the authenticated user's username.

Description: An availability probe surfaces taken names as apperr.Conflict
before the write; the database unique constraint remains the backstop for
concurrent claims.

Parameters:
  - context: context.Context
  - userID: string
  - newUsername: string

Returns:
  - *auth.User: The updated user profile
  - error: Conflict or storage failures
*/
func (service *Service) UpdateUsername(context context.Context, userID, newUsername string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Renaming to the current name is a quiet no-op
	if user.Username == newUsername {
		return user, nil
	}

	// Availability probe; the unique constraint stays the backstop for races
	if holder, err := service.accountRepository.FindByUsername(context, newUsername); err == nil && holder.ID != userID {
		return nil, apperr.Conflict("Username is already taken")
	}

	if err := service.accountRepository.UpdateUsername(context, userID, newUsername); err != nil {
		return nil, err
	}

	user.Username = newUsername
	service.logger.Info("account_username_updated", slog.String("user_id", userID))

	return user, nil
}

/*
UpdateEmail replaces the authenticated user's email address.

Description: The change demotes the account to unverified and re-runs the
email verification flow against the new address. Until the new link is
clicked, login is refused with the unverified message.

Parameters:
  - context: context.Context
  - userID: string
  - newEmail: string

Returns:
  - *auth.User: The updated (now unverified) user profile
  - error: Conflict or storage failures
*/
func (service *Service) UpdateEmail(context context.Context, userID, newEmail string) (*auth.User, error) {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if user.Email == newEmail {
		return user, nil
	}

	if err := service.accountRepository.UpdateEmail(context, userID, newEmail); err != nil {
		return nil, err
	}

	user.Email = newEmail
	user.IsVerified = false

	// Best-effort side effect: the user can trigger a resend if this fails
	if err := service.verification.RequestEmailVerification(context, userID); err != nil {
		service.logger.Error("account_reverification_request_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("account_email_updated", slog.String("user_id", userID))

	return user, nil
}

// # Account Lifecycle

/*
DeleteAccount permanently removes an account.

Description: Members may only delete their own account; administrators may
delete any account.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims (the authenticated caller)
  - targetID: string

Returns:
  - error: Forbidden, NotFound, or storage failures
*/
func (service *Service) DeleteAccount(context context.Context, actor *sec.AuthClaims, targetID string) error {
	isOwner := actor.UserID == targetID
	isAdmin := sec.UserRole(actor.Role).AtLeast(sec.RoleAdmin)

	if !isOwner && !isAdmin {
		return apperr.Forbidden("You may only delete your own account")
	}

	if err := service.accountRepository.Delete(context, targetID); err != nil {
		return err
	}

	service.logger.Info("account_deleted",
		slog.String("target_id", targetID),
		slog.String("actor_id", actor.UserID),
		slog.Bool("by_admin", isAdmin && !isOwner),
	)

	return nil
}

// # Administration

// Default and maximum page sizes for the administrative listing.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

/*
ListAccounts returns a page of all accounts for administrative review.

Parameters:
  - context: context.Context
  - limit: int (clamped to [1, 100]; 0 means default)
  - offset: int

Returns:
  - []*auth.User: Page of accounts, newest first
  - error: Storage failures
*/
func (service *Service) ListAccounts(context context.Context, limit, offset int) ([]*auth.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := service.accountRepository.List(context, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return users, nil
}
