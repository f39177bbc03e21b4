package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

const commentColumns = `id, author, content, date, image_id, created_at, updated_at`

// CreateComment inserts a comment and fills in ID and timestamps.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()

	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.Author,
		comment.Content,
		comment.Date,
		comment.ImageID,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}

	return nil
}

// GetComment retrieves a single comment.
// Returns apperror.ErrNotFound if it doesn't exist.
func (db *DB) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`,
		id,
	)

	comment, err := scanComment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}

	return comment, nil
}

// ListCommentsByImage returns one page of comments on imageID, newest first.
//
// LIMIT/OFFSET pagination: page N of size L is LIMIT L OFFSET N*L.
// rowid DESC keeps the order stable for comments posted in the same tick.
func (db *DB) ListCommentsByImage(ctx context.Context, imageID string, opts repository.ListOptions) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments
		 WHERE image_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		imageID,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for image %s: %w", imageID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, opts.Limit)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// DeleteComment removes a single comment.
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	return checkAffected(result, func() error { return apperror.NotFound("Comment", id) })
}

// DeleteCommentsByImage removes every comment attached to imageID.
// Zero rows is not an error: an image without comments is normal.
func (db *DB) DeleteCommentsByImage(ctx context.Context, imageID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE image_id = ?`, imageID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting comments for image %s: %w", imageID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

func scanComment(s rowScanner) (*model.Comment, error) {
	var c model.Comment
	if err := s.Scan(
		&c.ID,
		&c.Author,
		&c.Content,
		&c.Date,
		&c.ImageID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
