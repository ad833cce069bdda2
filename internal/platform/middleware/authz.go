// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/domora/api/internal/platform/constants"
	"github.com/domora/api/internal/platform/ctxutil"
	"github.com/domora/api/internal/platform/sec"
)

// # Authentication & Authorization

// TokenVerifier validates a raw access token and returns its claims.
//
// The verification is context-aware so implementations can consult the
// revocation blocklist in addition to checking the signature.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, tokenString string) (*sec.AuthClaims, error)
}

/*
Authenticate extracts and validates the Bearer token from incoming requests.

It operates in "optional" mode: requests without a token proceed as anonymous,
while requests with an invalid or revoked token are rejected immediately.
Route-level enforcement is handled by RequireAuth / RequireRole.

Parameters:
  - verifier: TokenVerifier (signature + revocation check)

Returns:
  - func(http.Handler) http.Handler: The middleware chain link
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Extract the Authorization header
			authHeader := request.Header.Get(constants.HeaderAuthorization)
			if authHeader == "" {
				// Anonymous request: proceed without claims
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Validate the Bearer scheme
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], constants.AuthSchemeBearer) {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header format")
				return
			}

			// 3. Verify signature, expiry and revocation state
			claims, err := verifier.VerifyAccessToken(request.Context(), parts[1])
			if err != nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			// 4. Inject the authenticated identity into the context
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

/*
RequireAuth rejects requests that did not authenticate successfully.

Must be mounted after Authenticate in the chain.
*/
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			if ctxutil.GetAuthUser(request.Context()) == nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

/*
RequireRole rejects authenticated requests whose role is below the minimum.

Parameters:
  - minimumRole: sec.UserRole (inclusive lower bound)
*/
func RequireRole(minimumRole sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				writeError(writer, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if !sec.UserRole(claims.Role).AtLeast(minimumRole) {
				writeError(writer, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
