// Package repository declares the storage contracts the service layer
// depends on. Implementations live in sub-packages (see repository/sqlite);
// tests use in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/photo-gallery/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists gallery accounts keyed by username.
type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// username (or GitHub ID) is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	// ListUsers returns users oldest first.
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	// SetProfileImage sets the showcase image only if the user has none yet.
	// It reports whether the reference was written.
	SetProfileImage(ctx context.Context, username, imageID string) (bool, error)
	// ClearProfileImage removes the reference if it currently points at imageID.
	ClearProfileImage(ctx context.Context, username, imageID string) error
}

// ImageRepository persists image metadata. The bytes live in the file store.
type ImageRepository interface {
	CreateImage(ctx context.Context, image *model.Image) error
	GetImage(ctx context.Context, id string) (*model.Image, error)
	// ListImagesByAuthor returns the author's images oldest first.
	ListImagesByAuthor(ctx context.Context, author string) ([]model.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

// CommentRepository persists comments on images.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	// ListCommentsByImage returns comments on imageID newest first.
	ListCommentsByImage(ctx context.Context, imageID string, opts ListOptions) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	// DeleteCommentsByImage removes every comment on imageID and returns how many were removed.
	DeleteCommentsByImage(ctx context.Context, imageID string) (int64, error)
}

// SessionRepository holds server-side login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions whose expiry is at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
