// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/platform/sec"
)

const (
	testSecret = "unit-test-secret-do-not-use-in-prod"
	testIssuer = "domora.app"
)

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, testIssuer)
	require.NoError(t, err)
	return service
}

/*
TestNewTokenService rejects an empty signing secret.
*/
func TestNewTokenService(t *testing.T) {
	_, err := sec.NewTokenService("", testIssuer)
	assert.Error(t, err)
}

/*
TestTokenService_RoundTrip verifies that a generated token decodes back into
the same identity claims with a fresh jti.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateToken("user-1", "ana@example.com", "member", time.Hour, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.False(t, claims.IsRefresh)
	assert.NotEmpty(t, claims.ID, "jti must be set for revocation support")
}

/*
TestTokenService_UniqueJTI ensures every minted token carries a distinct jti.
*/
func TestTokenService_UniqueJTI(t *testing.T) {
	service := newTokenService(t)

	first, err := service.GenerateToken("user-1", "ana@example.com", "member", time.Hour, false)
	require.NoError(t, err)
	second, err := service.GenerateToken("user-1", "ana@example.com", "member", time.Hour, false)
	require.NoError(t, err)

	firstClaims, err := service.VerifyToken(first)
	require.NoError(t, err)
	secondClaims, err := service.VerifyToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

/*
TestTokenService_Expired collapses an expired token into ErrTokenInvalid.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateToken("user-1", "ana@example.com", "member", -time.Minute, false)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongSecret rejects tokens signed with a different secret.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	service := newTokenService(t)

	otherService, err := sec.NewTokenService("a-completely-different-secret", testIssuer)
	require.NoError(t, err)

	token, err := otherService.GenerateToken("user-1", "ana@example.com", "member", time.Hour, false)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Garbage rejects strings that are not tokens at all.
*/
func TestTokenService_Garbage(t *testing.T) {
	service := newTokenService(t)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := service.VerifyToken(input)
		assert.ErrorIs(t, err, sec.ErrTokenInvalid)
	}
}

/*
TestTokenService_KindNarrowing verifies that the access/refresh narrowing
verifiers reject the opposite token kind with their dedicated errors.
*/
func TestTokenService_KindNarrowing(t *testing.T) {
	service := newTokenService(t)

	accessToken, err := service.GenerateToken("user-1", "ana@example.com", "member", time.Hour, false)
	require.NoError(t, err)
	refreshToken, err := service.GenerateToken("user-1", "ana@example.com", "member", time.Hour, true)
	require.NoError(t, err)

	// Matching kinds pass
	_, err = service.VerifyAccessToken(accessToken)
	assert.NoError(t, err)
	_, err = service.VerifyRefreshToken(refreshToken)
	assert.NoError(t, err)

	// Crossed kinds fail with the narrowing errors
	_, err = service.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, sec.ErrAccessTokenRequired)
	_, err = service.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, sec.ErrRefreshTokenRequired)
}
