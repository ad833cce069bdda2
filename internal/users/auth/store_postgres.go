// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

// PostgreSQL implementation of the auth storage contracts.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/dberr"
)

// userColumns is the canonical SELECT column list for the account table.
const userColumns = `id, username, email, passwordhash, firstname, lastname, ucin,
	dateofbirth, gender, role, isverified, totpsecret, enabled2fa, createdat, updatedat`

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// It also carries the account-management queries (username/email updates,
// deletion, listing) consumed by the account package through its own
// narrower interface.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// scanUser hydrates a User from a single-row query result.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.UCIN,
		&user.DateOfBirth,
		&user.Gender,
		&user.Role,
		&user.IsVerified,
		&user.TOTPSecret,
		&user.Enabled2FA,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided. Unique-constraint races surface as a single generic Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, firstname, lastname, ucin,
			dateofbirth, gender, role, isverified, totpsecret, enabled2fa, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.UCIN,
		user.DateOfBirth,
		user.Gender,
		user.Role,
		user.IsVerified,
		user.TOTPSecret,
		user.Enabled2FA,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Generic message: the caller must not learn which identity field collided.
		return dberr.Wrap(err, "An account with these details already exists")
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users.account WHERE email = $1", userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users.account WHERE username = $1", userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users.account WHERE id = $1", userColumns)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
ExistsByIdentity performs the combined uniqueness probe over email, username,
and national identity number in a single round trip.

Parameters:
  - context: context.Context
  - email: string
  - username: string
  - ucin: string

Returns:
  - bool: true if any identity field is taken
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ExistsByIdentity(context context.Context, email, username, ucin string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users.account
			WHERE email = $1 OR username = $2 OR ucin = $3
		)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, email, username, ucin).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_user_repo_exists_by_identity_failed: %w", err)
	}

	return exists, nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
UpdateUsername replaces the account's username.

Description: Uniqueness is enforced by the database constraint; a collision
surfaces as apperr.Conflict.

Parameters:
  - context: context.Context
  - userID: string
  - newUsername: string

Returns:
  - error: apperr.Conflict or execution errors
*/
func (repository *PostgresUserRepository) UpdateUsername(context context.Context, userID, newUsername string) error {
	const query = `
		UPDATE users.account
		SET username = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, newUsername, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Username is already taken")
	}

	return nil
}

/*
UpdateEmail replaces the account's email address and resets the verification
flag, forcing the new address through the verification flow again.

Parameters:
  - context: context.Context
  - userID: string
  - newEmail: string

Returns:
  - error: apperr.Conflict or execution errors
*/
func (repository *PostgresUserRepository) UpdateEmail(context context.Context, userID, newEmail string) error {
	const query = `
		UPDATE users.account
		SET email = $2, isverified = FALSE, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, newEmail, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Email is already registered")
	}

	return nil
}

/*
MarkVerified updates the user's status to isverified = true.

Description: Post-verification activation of the account. Idempotent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = "UPDATE users.account SET isverified = TRUE, updatedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
SetTOTPSecret stores a pending TOTP shared secret without flipping enabled2fa.

Parameters:
  - context: context.Context
  - userID: string
  - secret: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetTOTPSecret(context context.Context, userID, secret string) error {
	const query = `
		UPDATE users.account
		SET totpsecret = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, secret, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_totp_secret_failed: %w", err)
	}

	return nil
}

/*
Enable2FA flips the second factor on for an account with a stored secret.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) Enable2FA(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET enabled2fa = TRUE, updatedat = $2
		WHERE id = $1 AND totpsecret <> ''`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_enable_2fa_failed: %w", err)
	}

	return nil
}

/*
Disable2FA switches the second factor off and discards the shared secret.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) Disable2FA(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET enabled2fa = FALSE, totpsecret = '', updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_disable_2fa_failed: %w", err)
	}

	return nil
}

/*
Delete permanently removes a user account.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound when no row matched, or execution errors
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM users.account WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
List returns a page of accounts ordered by creation time (newest first).

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*User: Page of hydrated entities
  - error: Execution errors
*/
func (repository *PostgresUserRepository) List(context context.Context, limit, offset int) ([]*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users.account
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`, userColumns)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_user_repo_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_user_repo_list_rows_failed: %w", err)
	}

	return users, nil
}
