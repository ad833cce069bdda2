// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/platform/sec"
)

/*
TestHashPassword verifies that hashing produces a verifiable, salted digest.
*/
func TestHashPassword(t *testing.T) {
	const password = "Sup3r$ecretPass"

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	// The digest must never equal the plain text
	assert.NotEqual(t, password, hash)

	// Bcrypt salts: hashing twice yields different digests
	secondHash, err := sec.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, hash, secondHash)
}

/*
TestCheckPasswordHash covers match, mismatch, and malformed digest inputs.
*/
func TestCheckPasswordHash(t *testing.T) {
	const password = "Sup3r$ecretPass"

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct_password", password, hash, true},
		{"wrong_password", "Wr0ng!Password", hash, false},
		{"empty_password", "", hash, false},
		{"malformed_digest", password, "not-a-bcrypt-digest", false},
		{"empty_digest", password, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sec.CheckPasswordHash(tt.password, tt.hash))
		})
	}
}
