// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/users/auth"
)

// newTestRedis spins up an in-process Redis and a client pointed at it.
func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

/*
TestLoginAttemptRepository_Threshold walks an identity from a clean slate to
the lockout threshold and back.
*/
func TestLoginAttemptRepository_Threshold(t *testing.T) {
	_, client := newTestRedis(t)
	repository := auth.NewLoginAttemptRepository(client)
	ctx := context.Background()

	const identity = "ana@example.com"

	// Clean slate: not blocked
	blocked, err := repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Four failures: still below the threshold
	for i := 1; i < auth.LoginFailureThreshold; i++ {
		count, err := repository.RecordFailure(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}

	blocked, err = repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.False(t, blocked)

	// The fifth failure trips the lockout
	count, err := repository.RecordFailure(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, int64(auth.LoginFailureThreshold), count)

	blocked, err = repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Failures past the threshold keep it locked
	_, err = repository.RecordFailure(ctx, identity)
	require.NoError(t, err)

	blocked, err = repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.True(t, blocked)
}

/*
TestLoginAttemptRepository_Reset clears the counter on successful login.
*/
func TestLoginAttemptRepository_Reset(t *testing.T) {
	_, client := newTestRedis(t)
	repository := auth.NewLoginAttemptRepository(client)
	ctx := context.Background()

	const identity = "ana@example.com"

	for i := 0; i < auth.LoginFailureThreshold; i++ {
		_, err := repository.RecordFailure(ctx, identity)
		require.NoError(t, err)
	}

	require.NoError(t, repository.Reset(ctx, identity))

	blocked, err := repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.False(t, blocked)

	// The counter restarts from one after a reset
	count, err := repository.RecordFailure(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

/*
TestLoginAttemptRepository_SlidingWindow verifies the window semantics: each
failure pushes expiry forward, and full quiet time unlocks the identity.
*/
func TestLoginAttemptRepository_SlidingWindow(t *testing.T) {
	server, client := newTestRedis(t)
	repository := auth.NewLoginAttemptRepository(client)
	ctx := context.Background()

	const identity = "ana@example.com"

	for i := 0; i < auth.LoginFailureThreshold; i++ {
		_, err := repository.RecordFailure(ctx, identity)
		require.NoError(t, err)
	}

	// Half the window passes, then another failure slides it forward
	server.FastForward(auth.LoginFailureWindow / 2)
	_, err := repository.RecordFailure(ctx, identity)
	require.NoError(t, err)

	// The original window length has now elapsed since the FIRST failure,
	// but the refresh keeps the lock alive.
	server.FastForward(auth.LoginFailureWindow / 2)
	blocked, err := repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Full quiet window: the counter expires and the identity unlocks
	server.FastForward(auth.LoginFailureWindow)
	blocked, err = repository.IsBlocked(ctx, identity)
	require.NoError(t, err)
	assert.False(t, blocked)
}

/*
TestTokenBlocklistRepository covers revocation, expiry of blocklist entries,
and the no-op path for already-expired tokens.
*/
func TestTokenBlocklistRepository(t *testing.T) {
	server, client := newTestRedis(t)
	repository := auth.NewTokenBlocklistRepository(client)
	ctx := context.Background()

	const jti = "0190cafe-0000-7000-8000-0123456789ab"

	// Unknown jti: not revoked
	revoked, err := repository.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	// Revoke for an hour
	require.NoError(t, repository.Revoke(ctx, jti, time.Hour))

	revoked, err = repository.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	// The entry dies with the token's natural lifetime
	server.FastForward(2 * time.Hour)
	revoked, err = repository.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	// Non-positive TTL (token already expired) writes nothing
	require.NoError(t, repository.Revoke(ctx, "expired-jti", -time.Minute))
	revoked, err = repository.IsRevoked(ctx, "expired-jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
