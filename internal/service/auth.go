package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/apperror"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/auth"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/metrics"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/model"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/repository"
)

// MinPasswordLength is the shortest accepted password, counted in
// characters after trimming surrounding whitespace.
const MinPasswordLength = 7

// AuthService handles signup and login.
//
//	AuthHandler (HTTP) → AuthService → users collection (users.json)
//	                               ↘ PasswordService (bcrypt)
//	                               ↘ TokenService (JWT)
type AuthService struct {
	users     repository.Collection[model.User]
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.Collection[model.User],
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new account and returns a token for it.
//
// STEPS:
//  1. email must be non-empty and contain "@"; password must have at least
//     7 characters after trimming
//  2. the password is hashed BEFORE taking the users lock, so a slow bcrypt
//     run never blocks other signups
//  3. inside the locked Update, the email is checked for an exact match
//     against every stored user and the new user is appended
//  4. a token whose subject is the email is issued
func (s *AuthService) Signup(ctx context.Context, email, password string) (result *AuthResult, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("signup", authOutcome(err)).Inc() }()

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") ||
		utf8.RuneCountInString(strings.TrimSpace(password)) < MinPasswordLength {
		return nil, invalidSignup("email", "Invalid input - password should be at least 7 characters long.")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, invalidSignup("password", "Invalid input - password should be at most 72 bytes long.")
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := model.User{
		ID:        xid.New().String(),
		Email:     email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}

	err = s.users.Update(ctx, func(users []model.User) ([]model.User, error) {
		if indexOfUser(users, email) >= 0 {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "User exists already",
				Field:   "email",
				Errors:  map[string]string{"credentials": "User with the email address exists already."},
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to store user", slog.String("error", err.Error()))
		}
		return nil, storageErr(s.users.Name(), err)
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return &AuthResult{User: &user, Token: token}, nil
}

// Login checks the credentials and returns a token.
//
// USER ENUMERATION:
// A missing field, an unknown email and a wrong password all return the
// very same apperror.InvalidCredentials. For an unknown email a bcrypt
// comparison still runs against a dummy hash, so response time does not
// reveal whether the account exists either.
func (s *AuthService) Login(ctx context.Context, email, password string) (result *AuthResult, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("login", authOutcome(err)).Inc() }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	users, err := s.users.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load users", slog.String("error", err.Error()))
		return nil, storageErr(s.users.Name(), err)
	}

	i := indexOfUser(users, email)
	if i < 0 {
		_ = s.passwords.VerifyDummy(password)
		return nil, apperror.InvalidCredentials()
	}
	user := users[i]

	if err := s.passwords.Verify(user.Password, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A stored hash bcrypt cannot parse. The caller still only
			// learns that the credentials are invalid.
			s.logger.Error("unusable password hash", slog.String("userID", user.ID), slog.String("error", err.Error()))
		}
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: &user, Token: token}, nil
}

// GetUserByEmail returns the user with exactly this email. Used by
// /auth/me after the middleware has validated the token.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, storageErr(s.users.Name(), err)
	}
	i := indexOfUser(users, email)
	if i < 0 {
		return nil, apperror.NotFound("user", email)
	}
	return &users[i], nil
}

func indexOfUser(users []model.User, email string) int {
	return slices.IndexFunc(users, func(u model.User) bool { return u.Email == email })
}

// invalidSignup builds the InvalidInput error of a rejected signup. It
// carries the same credentials detail as a failed login.
func invalidSignup(field, message string) *apperror.AppError {
	err := apperror.ValidationFailed(field, message)
	err.Errors = map[string]string{"credentials": "Invalid email or password entered."}
	return err
}

// authOutcome is the result label of the auth_attempts_total metric.
func authOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrValidation):
		return "invalid"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return "rejected"
	default:
		return "error"
	}
}
