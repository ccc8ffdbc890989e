package repository

import (
	"context"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

type PollRepository interface {
	Create(ctx context.Context, p *domain.Poll) (string, error)
	Get(ctx context.Context, id string) (*domain.Poll, error)
	ListByStatus(ctx context.Context, status domain.PollStatus) ([]domain.Poll, error)
	// Vote применяет mutate к свежей копии под row lock и сохраняет результат.
	Vote(ctx context.Context, id string, mutate func(*domain.Poll) error) (*domain.Poll, error)
	SetStatus(ctx context.Context, id string, status domain.PollStatus) error
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}
