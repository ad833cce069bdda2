// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

// HTTP delivery layer for account self-service and administration.
//
// # Security
//
// All endpoints in this package require an active authentication session
// provided by the Authenticate + RequireAuth middleware chain; the listing
// endpoint additionally requires the admin role.

package account

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/domora/api/internal/platform/middleware"
	requestutil "github.com/domora/api/internal/platform/request"
	"github.com/domora/api/internal/platform/respond"
	"github.com/domora/api/internal/platform/sec"
	"github.com/domora/api/internal/platform/validate"
	"github.com/domora/api/internal/users/auth"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth())

	// Self-service
	router.Get("/me", handler.getMe)
	router.Patch("/me/username", handler.updateUsername)
	router.Patch("/me/email", handler.updateEmail)

	// Lifecycle (owner or admin)
	router.Delete("/{id}", handler.deleteAccount)

	// Administration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/", handler.listAccounts)
	})

	return router
}

// # Request Payloads

type updateUsernameRequest struct {
	Username string `json:"username"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

/*
GetMe retrieves the authenticated user's full private profile.

GET /api/v1/users/me

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateUsername replaces the authenticated user's username.

PATCH /api/v1/users/me/username

Request:
  - Body: updateUsernameRequest (Username)

Response:
  - 200: User: Updated profile
  - 400: ErrInvalidJSON: Validation failure
  - 409: ErrConflict: Username is already taken
*/
func (handler *Handler) updateUsername(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUsernameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(auth.FieldUsername, input.Username).
		MinLen(auth.FieldUsername, input.Username, auth.UsernameMinLen).
		MaxLen(auth.FieldUsername, input.Username, auth.UsernameMaxLen)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateUsername(request.Context(), userID, input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateEmail replaces the authenticated user's email address.

PATCH /api/v1/users/me/email

Description: Demotes the account to unverified and emails a fresh
verification link to the new address.

Request:
  - Body: updateEmailRequest (Email)

Response:
  - 200: User: Updated (unverified) profile
  - 400: ErrInvalidJSON: Validation failure
  - 409: ErrConflict: Email is already registered
*/
func (handler *Handler) updateEmail(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateEmailRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(auth.FieldEmail, input.Email).Email(auth.FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateEmail(request.Context(), userID, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteAccount permanently removes an account.

DELETE /api/v1/users/{id}

Description: Members may only delete their own account; administrators may
delete any account.

Response:
  - 204: No Content: Account deleted
  - 403: ErrForbidden: Not the owner and not an admin
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID := requestutil.Param(request, "id")

	v := &validate.Validator{}
	v.Required(FieldUserID, targetID).UUID(FieldUserID, targetID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), claims, targetID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListAccounts returns a page of all accounts for administrative review.

GET /api/v1/users?limit=20&offset=0

Response:
  - 200: []User: Page of accounts, newest first
  - 403: ErrForbidden: Admin role required
*/
func (handler *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	limit, _ := strconv.Atoi(request.URL.Query().Get(FieldLimit))
	offset, _ := strconv.Atoi(request.URL.Query().Get(FieldOffset))

	users, err := handler.accountService.ListAccounts(request.Context(), limit, offset)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}
