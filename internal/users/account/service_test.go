// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package account_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domora/api/internal/platform/apperr"
	"github.com/domora/api/internal/platform/sec"
	"github.com/domora/api/internal/users/account"
	"github.com/domora/api/internal/users/auth"
)

// # In-Memory Doubles

type mockAccountRepository struct {
	users map[string]*auth.User

	findByUsernameCalls int
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{users: make(map[string]*auth.User)}
}

func (m *mockAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (m *mockAccountRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	m.findByUsernameCalls++
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *mockAccountRepository) UpdateUsername(_ context.Context, userID, newUsername string) error {
	user, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Username = newUsername
	return nil
}

func (m *mockAccountRepository) UpdateEmail(_ context.Context, userID, newEmail string) error {
	for id, existing := range m.users {
		if id != userID && existing.Email == newEmail {
			return apperr.Conflict("Email is already registered")
		}
	}
	user, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Email = newEmail
	user.IsVerified = false
	return nil
}

func (m *mockAccountRepository) Delete(_ context.Context, userID string) error {
	if _, ok := m.users[userID]; !ok {
		return apperr.NotFound("User")
	}
	delete(m.users, userID)
	return nil
}

func (m *mockAccountRepository) List(_ context.Context, limit, offset int) ([]*auth.User, error) {
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	page := make([]*auth.User, 0, limit)
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		copied := *m.users[ids[i]]
		page = append(page, &copied)
	}
	return page, nil
}

type mockVerificationRequester struct {
	requestedFor []string
}

func (m *mockVerificationRequester) RequestEmailVerification(_ context.Context, userID string) error {
	m.requestedFor = append(m.requestedFor, userID)
	return nil
}

// # Fixture

type serviceFixture struct {
	repository   *mockAccountRepository
	verification *mockVerificationRequester
	service      *account.Service
}

func newServiceFixture() *serviceFixture {
	fixture := &serviceFixture{
		repository:   newMockAccountRepository(),
		verification: &mockVerificationRequester{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixture.service = account.NewService(fixture.repository, fixture.verification, logger)
	return fixture
}

func (f *serviceFixture) seedUser(username, email string) *auth.User {
	user := &auth.User{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Username:   username,
		Email:      email,
		FirstName:  "Ana",
		LastName:   "Ivanova",
		Role:       sec.RoleMember,
		IsVerified: true,
	}
	f.repository.users[user.ID] = user
	return user
}

// # Profile Management

/*
TestService_GetProfile returns the hydrated profile or a not-found error.
*/
func TestService_GetProfile(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()
	user := fixture.seedUser("ana", "ana@example.com")

	profile, err := fixture.service.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "ana", profile.Username)

	_, err = fixture.service.GetProfile(ctx, uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestService_UpdateUsername renames the account, treats the current name as a
no-op, and surfaces collisions as conflicts.
*/
func TestService_UpdateUsername(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()
	user := fixture.seedUser("ana", "ana@example.com")
	fixture.seedUser("taken", "taken@example.com")

	updated, err := fixture.service.UpdateUsername(ctx, user.ID, "anita")
	require.NoError(t, err)
	assert.Equal(t, "anita", updated.Username)
	assert.Equal(t, "anita", fixture.repository.users[user.ID].Username)

	// Renaming to the current name is a quiet no-op
	updated, err = fixture.service.UpdateUsername(ctx, user.ID, "anita")
	require.NoError(t, err)
	assert.Equal(t, "anita", updated.Username)

	// A taken name is refused by the availability probe before any write
	fixture.repository.findByUsernameCalls = 0
	_, err = fixture.service.UpdateUsername(ctx, user.ID, "taken")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	assert.Equal(t, 1, fixture.repository.findByUsernameCalls)
	assert.Equal(t, "anita", fixture.repository.users[user.ID].Username)
}

/*
TestService_UpdateEmail demotes the account to unverified and re-runs the
verification flow against the new address.
*/
func TestService_UpdateEmail(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()
	user := fixture.seedUser("ana", "ana@example.com")

	updated, err := fixture.service.UpdateEmail(ctx, user.ID, " New@Example.com ")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", updated.Email, "email should be normalized")
	assert.False(t, updated.IsVerified)
	assert.False(t, fixture.repository.users[user.ID].IsVerified)
	assert.Equal(t, []string{user.ID}, fixture.verification.requestedFor)

	// Setting the same address again changes nothing and sends nothing
	updated, err = fixture.service.UpdateEmail(ctx, user.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Len(t, fixture.verification.requestedFor, 1)
}

// # Account Lifecycle

/*
TestService_DeleteAccount enforces the owner-or-admin rule.
*/
func TestService_DeleteAccount(t *testing.T) {
	tests := []struct {
		name      string
		actorRole sec.UserRole
		actorIsTg bool
		wantErr   bool
	}{
		{"owner_deletes_self", sec.RoleMember, true, false},
		{"admin_deletes_other", sec.RoleAdmin, false, false},
		{"member_deletes_other", sec.RoleMember, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newServiceFixture()
			ctx := context.Background()
			target := fixture.seedUser("target", "target@example.com")

			actorID := uuid.NewString()
			if tt.actorIsTg {
				actorID = target.ID
			}
			actor := &sec.AuthClaims{UserID: actorID, Role: string(tt.actorRole)}

			err := fixture.service.DeleteAccount(ctx, actor, target.ID)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
				assert.Contains(t, fixture.repository.users, target.ID)
			} else {
				require.NoError(t, err)
				assert.NotContains(t, fixture.repository.users, target.ID)
			}
		})
	}
}

// # Administration

/*
TestService_ListAccounts clamps the page parameters before querying.
*/
func TestService_ListAccounts(t *testing.T) {
	fixture := newServiceFixture()
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		fixture.seedUser("member"+string(rune('a'+i)), string(rune('a'+i))+"@example.com")
	}

	// Zero limit falls back to the default page size
	page, err := fixture.service.ListAccounts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 20)

	// Oversized limits are clamped, negative offsets are zeroed
	page, err = fixture.service.ListAccounts(ctx, 1000, -5)
	require.NoError(t, err)
	assert.Len(t, page, 30)

	// Offsets page through the collection
	page, err = fixture.service.ListAccounts(ctx, 25, 25)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}
