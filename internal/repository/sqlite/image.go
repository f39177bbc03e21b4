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

var _ repository.ImageRepository = (*DB)(nil)

const imageColumns = `id, title, author, path, mime_type, created_at, updated_at`

// CreateImage inserts image metadata and fills in ID and timestamps.
//
// IDs come from xid: 20 URL-safe characters, sortable by creation time.
func (db *DB) CreateImage(ctx context.Context, image *model.Image) error {
	image.ID = xid.New().String()

	now := time.Now().UTC()
	image.CreatedAt = now
	image.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO images (`+imageColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		image.ID,
		image.Title,
		image.Author,
		image.Path,
		image.MimeType,
		image.CreatedAt,
		image.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating image: %w", err)
	}

	return nil
}

// GetImage retrieves a single image record.
// Returns apperror.ErrNotFound if it doesn't exist.
func (db *DB) GetImage(ctx context.Context, id string) (*model.Image, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ?`,
		id,
	)

	image, err := scanImage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Image", id)
		}
		return nil, fmt.Errorf("sqlite: getting image %s: %w", id, err)
	}

	return image, nil
}

// ListImagesByAuthor returns every image uploaded by author, oldest first.
// An unknown author simply has no images.
func (db *DB) ListImagesByAuthor(ctx context.Context, author string) ([]model.Image, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+imageColumns+`
		 FROM images
		 WHERE author = ?
		 ORDER BY created_at ASC, rowid ASC`,
		author,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing images for %s: %w", author, err)
	}
	defer rows.Close()

	images := []model.Image{}
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning image row: %w", err)
		}
		images = append(images, *image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating images: %w", err)
	}

	return images, nil
}

// DeleteImage removes the image record. Comments must already be gone:
// the foreign key on comments.image_id rejects the delete otherwise.
func (db *DB) DeleteImage(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting image %s: %w", id, err)
	}

	return checkAffected(result, func() error { return apperror.NotFound("Image", id) })
}

func scanImage(s rowScanner) (*model.Image, error) {
	var i model.Image
	if err := s.Scan(
		&i.ID,
		&i.Title,
		&i.Author,
		&i.Path,
		&i.MimeType,
		&i.CreatedAt,
		&i.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &i, nil
}
