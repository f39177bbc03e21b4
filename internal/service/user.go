package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/photo-gallery/internal/model"
	"github.com/sakif/photo-gallery/internal/repository"
)

// UserService serves the user directory.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns one page of users, oldest account first.
//
// PAGINATION PARAMETERS:
//   - page: 0-based; negative becomes 0
//   - limit: raised to MinUserPageLimit, capped at MaxUserPageLimit
//
// The page carries Total so the client can compute ceil(Total / Limit).
func (s *UserService) List(ctx context.Context, page, limit int) (*model.UserPage, error) {
	if page < 0 {
		page = 0
	}
	if limit < MinUserPageLimit {
		limit = MinUserPageLimit
	}
	if limit > MaxUserPageLimit {
		limit = MaxUserPageLimit
	}

	var users []model.User
	if offset, ok := pageOffset(page, limit); ok {
		var err error
		users, err = s.users.ListUsers(ctx, repository.ListOptions{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			s.logger.Error("failed to list users", slog.String("error", err.Error()))
			return nil, fmt.Errorf("service/user: listing users: %w", err)
		}
	}

	total, err := s.users.CountUsers(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/user: counting users: %w", err)
	}

	if users == nil {
		users = []model.User{}
	}

	return &model.UserPage{
		Users: users,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
