package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// SessionManager ties signed tokens to server-side session rows.
//
// The browser only ever holds the token. Every request that presents it is
// checked twice: the signature (TokenService) and the row (SessionRepository).
// Deleting the row is what signing out means.
type SessionManager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	tokens   *TokenService

	// now is swappable so tests can move the clock.
	now func() time.Time
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(sessions repository.SessionRepository, users repository.UserRepository, tokens *TokenService) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Create starts a session for user and returns the token to put in the
// cookie along with the stored session.
func (m *SessionManager) Create(ctx context.Context, user *model.User) (string, *model.Session, error) {
	session := &model.Session{
		Username:  user.Username,
		ExpiresAt: m.now().Add(SessionLifetime),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("auth: creating session: %w", err)
	}

	token, err := m.tokens.Generate(session.ID, session.Username, session.ExpiresAt)
	if err != nil {
		// Don't leave a row behind that no cookie can ever reference.
		_ = m.sessions.DeleteSession(ctx, session.ID)
		return "", nil, err
	}

	return token, session, nil
}

// Current resolves a token to the signed-in user.
//
// Returns apperror.ErrUnauthorized when the token is bad, the session is
// gone or expired, or the user no longer exists. Any other error is a
// storage failure.
func (m *SessionManager) Current(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized()
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized()
	}

	session, err := m.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}

	// The token names both the session and the user; they must agree.
	if session.Username != claims.Username || session.Expired(m.now()) {
		return nil, apperror.Unauthorized()
	}

	user, err := m.users.GetUser(ctx, session.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("auth: loading session user: %w", err)
	}

	return user, nil
}

// Destroy ends the session named by token. Tokens that don't validate name
// no session, so there is nothing to delete and no error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := m.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("auth: deleting session: %w", err)
	}
	return nil
}

// PurgeExpired deletes every session past its expiry and reports how many
// were removed.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpiredSessions(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("auth: purging sessions: %w", err)
	}
	return n, nil
}
