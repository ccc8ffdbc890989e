package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"
)

// AdminService — операции админ-панели поверх пользователей и опросов.
type AdminService struct {
	users repository.UserRepository
	polls *PollService
}

func NewAdminService(users repository.UserRepository, polls *PollService) *AdminService {
	return &AdminService{users: users, polls: polls}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		slog.Error("admin.listUsers failed", slog.Any("err", err))
		return nil, err
	}
	return users, nil
}

// SetUserStatus включает/отключает аккаунт. Админов трогать нельзя.
func (s *AdminService) SetUserStatus(ctx context.Context, userID string, isActive bool) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return nil, domain.Invalid("cannot modify admin user status")
	}

	if err := s.users.SetActive(ctx, userID, isActive); err != nil {
		slog.Error("admin.setUserStatus failed", slog.Any("err", err))
		return nil, err
	}
	u.IsActive = isActive
	return u, nil
}

func (s *AdminService) ListPolls(ctx context.Context, status domain.PollStatus) ([]domain.Poll, error) {
	return s.polls.ListByStatus(ctx, status)
}

func (s *AdminService) SetPollStatus(ctx context.Context, pollID string, status domain.PollStatus) error {
	return s.polls.SetStatus(ctx, pollID, status)
}

func (s *AdminService) DeletePoll(ctx context.Context, pollID string) error {
	return s.polls.Delete(ctx, pollID)
}
