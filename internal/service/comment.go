package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// CommentService handles comments on images.
type CommentService struct {
	comments repository.CommentRepository
	images   repository.ImageRepository
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, images repository.ImageRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		images:   images,
		logger:   logger,
	}
}

// Post adds a comment by author to image imageID.
//
// content is HTML-escaped before it is stored, so the browser client can
// insert it into the page as-is. date is an optional client timestamp kept
// verbatim for display; ordering always uses the server's CreatedAt.
func (s *CommentService) Post(ctx context.Context, author *model.User, imageID, content, date string) (*model.Comment, error) {
	if author == nil {
		return nil, apperror.Unauthorized()
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxCommentLength))
	}

	if _, err := s.images.GetImage(ctx, imageID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Author:  author.Username,
		Content: html.EscapeString(content),
		Date:    strings.TrimSpace(date),
		ImageID: imageID,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("imageID", imageID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/comment: creating comment: %w", err)
	}

	s.logger.Info("comment posted",
		slog.String("id", comment.ID),
		slog.String("imageID", imageID),
		slog.String("author", comment.Author),
	)

	return comment, nil
}

// List returns page (0-based) of the comments on imageID, newest first,
// CommentPageSize per page. Negative pages are treated as page 0. Past the
// last page the result is empty, never nil.
func (s *CommentService) List(ctx context.Context, imageID string, page int) ([]model.Comment, error) {
	if page < 0 {
		page = 0
	}
	offset, ok := pageOffset(page, CommentPageSize)
	if !ok {
		return []model.Comment{}, nil
	}

	comments, err := s.comments.ListCommentsByImage(ctx, imageID, repository.ListOptions{
		Limit:  CommentPageSize,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list comments",
			slog.String("imageID", imageID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/comment: listing comments: %w", err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	return comments, nil
}

// Delete removes commentID from imageID on behalf of principal and returns
// the deleted comment.
//
// ORDER OF CHECKS:
//  1. the comment exists (404)
//  2. the image exists (404)
//  3. the comment actually belongs to that image (404)
//  4. principal wrote the comment or owns the image (403)
func (s *CommentService) Delete(ctx context.Context, principal *model.User, imageID, commentID string) (*model.Comment, error) {
	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	image, err := s.images.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	if comment.ImageID != image.ID {
		return nil, apperror.NotFound("Comment", commentID)
	}

	if principal == nil {
		return nil, apperror.Unauthorized()
	}
	if !CanDeleteComment(principal, comment, image) {
		s.logger.Warn("comment delete denied",
			slog.String("id", commentID),
			slog.String("username", principal.Username),
		)
		return nil, apperror.Forbidden()
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return nil, fmt.Errorf("service/comment: deleting comment %s: %w", commentID, err)
	}

	s.logger.Info("comment deleted",
		slog.String("id", commentID),
		slog.String("imageID", imageID),
		slog.String("by", principal.Username),
	)

	return comment, nil
}
