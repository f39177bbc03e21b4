package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/auth"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// AuthService handles accounts and sign-in.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                                 ↘ SessionManager (session rows + tokens)
//	                                 ↘ PasswordService (bcrypt)
//
// WHAT THIS SERVICE DOES NOT DO:
//   - It does NOT set cookies (that's the handler's job, an HTTP concern)
//   - It does NOT read HTTP requests
type AuthService struct {
	users     repository.UserRepository
	sessions  *auth.SessionManager
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions *auth.SessionManager,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// SigninResult bundles what a handler needs after a successful sign-in:
// the token for the cookie, the session (for the cookie's expiry) and the user.
type SigninResult struct {
	User    *model.User
	Session *model.Session
	Token   string
}

// Signup registers a new password account.
//
// Returns apperror.ErrValidation for a missing or malformed field and
// apperror.ErrConflict when the username is taken.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", MaxPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("username", username))
	return user, nil
}

// Signin checks a username/password pair and starts a session.
//
// An unknown username and a wrong password produce the same
// apperror.ErrUnauthorized ("access denied"), so a caller cannot probe which
// usernames exist.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*SigninResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("sign-in rejected")
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", username, err)
	}

	// Accounts created through GitHub have no password hash at all.
	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil {
		s.logger.Warn("sign-in rejected")
		return nil, apperror.Unauthorized()
	}

	return s.startSession(ctx, user)
}

// SigninGitHub signs in the account linked to a GitHub identity, creating
// it on first use.
//
// A new account takes the GitHub login as its username. If a password
// account already owns that name, the GitHub ID is appended
// ("octocat-583231") rather than linking the two.
func (s *AuthService) SigninGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*SigninResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.GetUserByGitHubID(ctx, ghUser.ID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createGitHubUser(ctx, ghUser)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/auth: loading GitHub user %d: %w", ghUser.ID, err)
	}

	return s.startSession(ctx, user)
}

// Signout ends the session named by token. Signing out without a session
// is not an error.
func (s *AuthService) Signout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*SigninResult, error) {
	token, session, err := s.sessions.Create(ctx, user)
	if err != nil {
		s.logger.Error("failed to create session",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user signed in", slog.String("username", user.Username))
	return &SigninResult{User: user, Session: session, Token: token}, nil
}

func (s *AuthService) createGitHubUser(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	candidates := []string{ghUser.Login, ghUser.Login + "-" + strconv.FormatInt(ghUser.ID, 10)}

	for _, name := range candidates {
		if validateUsername(name) != nil {
			continue
		}
		user := &model.User{Username: name, GitHubID: ghUser.ID}
		err := s.users.CreateUser(ctx, user)
		if err == nil {
			s.logger.Info("user registered via GitHub",
				slog.String("username", name),
				slog.Int64("githubID", ghUser.ID),
			)
			return user, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating GitHub user %s: %w", name, err)
		}
	}

	return nil, apperror.Conflict("username", ghUser.Login)
}

// validateUsername enforces the username rules. Usernames appear in URL
// paths and cookies, so they are limited to letters, digits, '-', '_' and '.'.
func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if username == "." || username == ".." {
		return apperror.ValidationFailed("username", "username is not allowed")
	}
	for _, r := range username {
		ok := r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return apperror.ValidationFailed("username",
				"username may only contain letters, digits, '-', '_' and '.'")
		}
	}
	return nil
}
