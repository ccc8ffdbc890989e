package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"

	"github.com/google/uuid"
)

type PollService struct {
	polls repository.PollRepository
	now   func() time.Time
}

func NewPollService(polls repository.PollRepository, now func() time.Time) *PollService {
	if now == nil {
		now = time.Now
	}
	return &PollService{polls: polls, now: now}
}

// Create создаёт опрос; ID опций назначаются здесь.
func (s *PollService) Create(ctx context.Context, creatorID, title, description string, options []string, endDate *time.Time) (*domain.Poll, error) {
	opts := make([]domain.PollOption, 0, len(options))
	for _, text := range options {
		opts = append(opts, domain.PollOption{ID: uuid.NewString(), Text: text})
	}

	p, err := domain.NewPoll(title, description, opts, creatorID, endDate, s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.polls.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("pollRepo.Create: %w", err)
	}
	return p, nil
}

func (s *PollService) ListActive(ctx context.Context) ([]domain.Poll, error) {
	return s.polls.ListByStatus(ctx, domain.PollActive)
}

func (s *PollService) Get(ctx context.Context, id string) (*domain.Poll, error) {
	p, err := s.polls.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPollNotFound
		}
		return nil, err
	}
	return p, nil
}

// Vote — один голос на пользователя; инвариант держит row lock репозитория.
func (s *PollService) Vote(ctx context.Context, pollID, userID, optionID string) (*domain.Poll, error) {
	now := s.now()
	p, err := s.polls.Vote(ctx, pollID, func(p *domain.Poll) error {
		return p.AddVote(userID, optionID, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPollNotFound
		}
		return nil, err
	}
	return p, nil
}

// Close доступен создателю опроса и админам.
func (s *PollService) Close(ctx context.Context, pollID string, caller *domain.User) (*domain.Poll, error) {
	p, err := s.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != caller.ID && !caller.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	if err := s.polls.SetStatus(ctx, pollID, domain.PollClosed); err != nil {
		return nil, err
	}
	p.Status = domain.PollClosed
	return p, nil
}

// SetStatus — админский контроль статуса (active|closed).
func (s *PollService) SetStatus(ctx context.Context, pollID string, status domain.PollStatus) error {
	if status != domain.PollActive && status != domain.PollClosed {
		return domain.Invalid("invalid status")
	}
	err := s.polls.SetStatus(ctx, pollID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrPollNotFound
	}
	return err
}

// Delete — мягкое удаление (status=deleted), доступно только админам на уровне роутера.
func (s *PollService) Delete(ctx context.Context, pollID string) error {
	err := s.polls.SetStatus(ctx, pollID, domain.PollDeleted)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrPollNotFound
	}
	return err
}

func (s *PollService) ListByStatus(ctx context.Context, status domain.PollStatus) ([]domain.Poll, error) {
	return s.polls.ListByStatus(ctx, status)
}

// CloseExpired закрывает активные опросы с истёкшим end_date; вызывается кроном.
func (s *PollService) CloseExpired(ctx context.Context) {
	n, err := s.polls.CloseExpired(ctx, s.now())
	if err != nil {
		slog.Error("poll.closeExpired failed", slog.Any("err", err))
		return
	}
	if n > 0 {
		slog.Info("closed expired polls", "count", n)
	}
}
