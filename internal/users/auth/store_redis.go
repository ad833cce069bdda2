// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/domora/api/internal/platform/constants"
)

// # Login Attempt Repository

// RedisLoginAttemptRepository implements LoginAttemptRepository using Redis.
//
// The counter uses INCR + EXPIRE: every failure refreshes the window, so a
// locked identity only unlocks after staying quiet for the full window.
type RedisLoginAttemptRepository struct {
	client *redis.Client
}

// NewLoginAttemptRepository creates a new Redis-backed LoginAttemptRepository.
func NewLoginAttemptRepository(client *redis.Client) *RedisLoginAttemptRepository {
	return &RedisLoginAttemptRepository{client: client}
}

/*
RecordFailure increments the failure counter and slides the window forward.

Parameters:
  - context: context.Context
  - identity: string (normalized email)

Returns:
  - int64: Failure count after the increment
  - error: Execution errors
*/
func (repository *RedisLoginAttemptRepository) RecordFailure(context context.Context, identity string) (int64, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginFail + identity

	// Increment the counter atomically
	count, err := repository.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_login_attempt_incr_failed: %w", err)
	}

	// Refresh the sliding window on EVERY failure, not just the first
	if err := repository.client.Expire(context, key, LoginFailureWindow).Err(); err != nil {
		return count, fmt.Errorf("redis_login_attempt_expire_failed: %w", err)
	}

	return count, nil
}

/*
IsBlocked reports whether the identity has reached the failure threshold.

Parameters:
  - context: context.Context
  - identity: string

Returns:
  - bool: true when login must be refused before touching credentials
  - error: Execution errors
*/
func (repository *RedisLoginAttemptRepository) IsBlocked(context context.Context, identity string) (bool, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginFail + identity

	// Get the current counter value
	value, err := repository.client.Get(context, key).Result()

	// A missing key means a clean slate
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_login_attempt_get_failed: %w", err)
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("redis_login_attempt_parse_failed: %w", err)
	}

	return count >= LoginFailureThreshold, nil
}

/*
Reset clears the failure counter after a successful authentication.

Parameters:
  - context: context.Context
  - identity: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisLoginAttemptRepository) Reset(context context.Context, identity string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixLoginFail + identity

	// Delete the counter
	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_login_attempt_reset_failed: %w", err)
	}

	// Return nil on success
	return nil
}

// # Token Blocklist Repository

// RedisTokenBlocklistRepository implements TokenBlocklistRepository using Redis.
type RedisTokenBlocklistRepository struct {
	client *redis.Client
}

// NewTokenBlocklistRepository creates a new Redis-backed TokenBlocklistRepository.
func NewTokenBlocklistRepository(client *redis.Client) *RedisTokenBlocklistRepository {
	return &RedisTokenBlocklistRepository{client: client}
}

/*
Revoke marks a token identifier as revoked for the given duration.

Description: The TTL should cover the token's remaining lifetime; once the
token naturally expires the blocklist entry is dead weight and Redis drops it.

Parameters:
  - context: context.Context
  - jti: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisTokenBlocklistRepository) Revoke(context context.Context, jti string, ttl time.Duration) error {

	// Already-expired tokens need no blocklist entry
	if ttl <= 0 {
		return nil
	}

	// Use constants for key prefix
	key := constants.RedisPrefixRevokedJTI + jti

	// The value is irrelevant: presence of the key is the revocation signal
	if err := repository.client.Set(context, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_blocklist_revoke_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
IsRevoked reports whether the token identifier is on the blocklist.

Parameters:
  - context: context.Context
  - jti: string

Returns:
  - bool: true when the token must be rejected
  - error: Execution errors
*/
func (repository *RedisTokenBlocklistRepository) IsRevoked(context context.Context, jti string) (bool, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixRevokedJTI + jti

	// Presence check
	exists, err := repository.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_blocklist_exists_failed: %w", err)
	}

	return exists > 0, nil
}
