package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// FileStore keeps the uploaded bytes. filestore.Disk implements it.
type FileStore interface {
	Save(ctx context.Context, filename, declaredType string, src io.Reader) (key, mimeType string, err error)
	Open(key string) (*os.File, error)
	Remove(key string) error
}

// Upload is one file taken from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ImageService handles image uploads, reads and the cascading delete.
type ImageService struct {
	images   repository.ImageRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	files    FileStore
	logger   *slog.Logger
}

// NewImageService creates an ImageService.
func NewImageService(
	images repository.ImageRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	files FileStore,
	logger *slog.Logger,
) *ImageService {
	return &ImageService{
		images:   images,
		comments: comments,
		users:    users,
		files:    files,
		logger:   logger,
	}
}

// Upload stores a new image in uploader's gallery.
//
// galleryOwner is the user named in the request path. The author of the new
// image is always uploader, so posting into somebody else's gallery is
// refused with apperror.ErrForbidden rather than silently re-attributed.
//
// The first image a user uploads becomes their profile image.
func (s *ImageService) Upload(ctx context.Context, uploader *model.User, galleryOwner, title string, file Upload) (*model.Image, error) {
	if uploader == nil {
		return nil, apperror.Unauthorized()
	}
	if galleryOwner != uploader.Username {
		return nil, apperror.Forbidden()
	}

	title = strings.TrimSpace(title)
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if file.Body == nil {
		return nil, apperror.ValidationFailed("image", "an image file is required")
	}

	key, mimeType, err := s.files.Save(ctx, file.Filename, file.ContentType, file.Body)
	if err != nil {
		s.logger.Error("failed to store upload",
			slog.String("author", uploader.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/image: storing file: %w", err)
	}

	image := &model.Image{
		Title:    title,
		Author:   uploader.Username,
		Path:     key,
		MimeType: mimeType,
	}
	if err := s.images.CreateImage(ctx, image); err != nil {
		if rmErr := s.files.Remove(key); rmErr != nil {
			s.logger.Error("failed to remove orphaned upload",
				slog.String("path", key),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("service/image: creating image: %w", err)
	}

	if set, err := s.users.SetProfileImage(ctx, uploader.Username, image.ID); err != nil {
		// The image itself is stored; a missing profile reference is cosmetic.
		s.logger.Error("failed to set profile image",
			slog.String("username", uploader.Username),
			slog.String("imageID", image.ID),
			slog.String("error", err.Error()),
		)
	} else if set {
		uploader.ProfileImageID = image.ID
	}

	s.logger.Info("image uploaded",
		slog.String("id", image.ID),
		slog.String("author", image.Author),
		slog.String("mimetype", image.MimeType),
	)

	return image, nil
}

// ListByAuthor returns author's images, oldest first. A user with no images
// (or no such user) yields an empty slice.
func (s *ImageService) ListByAuthor(ctx context.Context, author string) ([]model.Image, error) {
	images, err := s.images.ListImagesByAuthor(ctx, author)
	if err != nil {
		s.logger.Error("failed to list images",
			slog.String("author", author),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/image: listing images: %w", err)
	}
	return images, nil
}

// Get returns an image's metadata.
// Returns apperror.ErrNotFound if it doesn't exist.
func (s *ImageService) Get(ctx context.Context, id string) (*model.Image, error) {
	return s.images.GetImage(ctx, id)
}

// Open returns an image's metadata and its bytes. The caller closes the file.
// A record whose file has gone missing is reported as not found.
func (s *ImageService) Open(ctx context.Context, id string) (*model.Image, *os.File, error) {
	image, err := s.images.GetImage(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.files.Open(image.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("image file missing",
				slog.String("id", image.ID),
				slog.String("path", image.Path),
			)
			return nil, nil, apperror.NotFound("Image", id)
		}
		return nil, nil, fmt.Errorf("service/image: opening file: %w", err)
	}

	return image, f, nil
}

// Delete removes an image on behalf of principal and returns the deleted record.
//
// ORDER OF CHECKS: existence first (404), then ownership (403).
//
// CASCADE ORDER: comments → stored file → image record → profile reference.
// Each step is a separate call with no surrounding transaction. A failure
// stops the cascade and is returned; the comments removed so far stay removed.
func (s *ImageService) Delete(ctx context.Context, principal *model.User, id string) (*model.Image, error) {
	image, err := s.images.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}

	if principal == nil {
		return nil, apperror.Unauthorized()
	}
	if !CanDeleteImage(principal, image) {
		s.logger.Warn("image delete denied",
			slog.String("id", id),
			slog.String("username", principal.Username),
		)
		return nil, apperror.Forbidden()
	}

	removed, err := s.comments.DeleteCommentsByImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/image: deleting comments of %s: %w", id, err)
	}

	if err := s.files.Remove(image.Path); err != nil {
		s.logger.Error("failed to delete image file",
			slog.String("id", id),
			slog.String("path", image.Path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/image: deleting file of %s: %w", id, err)
	}

	if err := s.images.DeleteImage(ctx, id); err != nil {
		return nil, fmt.Errorf("service/image: deleting image %s: %w", id, err)
	}

	if err := s.users.ClearProfileImage(ctx, image.Author, id); err != nil {
		s.logger.Error("failed to clear profile image",
			slog.String("username", image.Author),
			slog.String("imageID", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("image deleted",
		slog.String("id", id),
		slog.Int64("comments", removed),
	)

	return image, nil
}
