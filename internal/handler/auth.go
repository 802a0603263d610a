package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/auth"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
)

// AuthHandler serves signup, login and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → create an account, respond with a token
//   - HandleLogin  → check credentials, respond with a token
//   - HandleMe     → return the user behind the Bearer token
//
// The token is returned in the JSON body; the client keeps it and sends it
// back in the Authorization header.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
	Token   string           `json:"token"`
}

type meResponse struct {
	User model.PublicUser `json:"user"`
}

// HandleSignup registers a user.
//
// HTTP: POST /auth/signup
// REQUEST BODY: {"email": "ana@example.com", "password": "secret123"}
// RESPONSE: 201 {"message": "User created.", "user": {"email": "..."}, "token": "..."}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAuthError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User created.",
		User:    res.User.Public(),
		Token:   res.Token,
	})
}

// HandleLogin authenticates a user.
//
// HTTP: POST /auth/login
// RESPONSE: 200 {"message": "User logged in.", "user": {"email": "..."}, "token": "..."}
//
// Every failure is the same 422 body, whatever went wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAuthError(w, r, h.logger, apperror.InvalidCredentials())
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Message: "User logged in.",
		User:    res.User.Public(),
		Token:   res.Token,
	})
}

// HandleMe returns the user the Bearer token was issued to.
//
// HTTP: GET /auth/me
// Auth: Required (RequireAuth puts the subject in the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		// Only reachable if the route is mounted without RequireAuth.
		writeError(w, r, h.logger, apperror.Unauthorized("Not authenticated."))
		return
	}

	user, err := h.auth.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// A valid token for an account that no longer exists.
			err = apperror.Unauthorized("Not authenticated.")
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user.Public()})
}
