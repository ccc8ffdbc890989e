package repository

import (
	"context"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (string, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	TouchLastLogin(ctx context.Context, id string, now time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
}
