package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `username, password_hash, github_id, profile_image_id, created_at, updated_at`

// CreateUser inserts a new user row.
//
// The username is the primary key, so a second signup with the same name
// fails with a constraint error. We translate it into apperror.Conflict so
// the handler can answer 409 without knowing anything about SQLite.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	// github_id is UNIQUE but nullable: password accounts store NULL so
	// any number of them can coexist.
	githubID := sql.NullInt64{Int64: user.GitHubID, Valid: user.GitHubID != 0}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		githubID,
		user.ProfileImageID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", user.Username)
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.Username, err)
	}

	return nil
}

// GetUser retrieves a user by username.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetUser(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`,
		username,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}

	return user, nil
}

// GetUserByGitHubID retrieves the account linked to a GitHub user ID.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`,
		githubID,
	)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("GitHub user", fmt.Sprint(githubID))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}

	return user, nil
}

// ListUsers returns one page of users, oldest account first.
//
// rowid breaks ties between accounts created within the same clock tick, so
// pages never overlap or skip a user.
func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY created_at ASC, rowid ASC
		 LIMIT ? OFFSET ?`,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, opts.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of accounts.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return count, nil
}

// SetProfileImage records imageID as the user's showcase image, but only if
// the user has none yet. The condition lives in the WHERE clause so two
// concurrent first uploads cannot both win.
func (db *DB) SetProfileImage(ctx context.Context, username, imageID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET profile_image_id = ?, updated_at = ?
		 WHERE username = ? AND profile_image_id = ''`,
		imageID,
		time.Now().UTC(),
		username,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: setting profile image for %s: %w", username, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearProfileImage drops the showcase reference if it points at imageID.
func (db *DB) ClearProfileImage(ctx context.Context, username, imageID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET profile_image_id = '', updated_at = ?
		 WHERE username = ? AND profile_image_id = ?`,
		time.Now().UTC(),
		username,
		imageID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clearing profile image for %s: %w", username, err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := s.Scan(
		&u.Username,
		&u.PasswordHash,
		&githubID,
		&u.ProfileImageID,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}
