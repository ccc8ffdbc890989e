package repository

import (
	"context"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, r *domain.Room) (string, error)
	Get(ctx context.Context, id string) (*domain.Room, error)
	// ListVisible возвращает публичные комнаты плюс приватные, где userID — член,
	// по убыванию last_activity.
	ListVisible(ctx context.Context, userID string) ([]domain.Room, error)
	// Update применяет mutate к свежей копии под row lock и сохраняет результат.
	Update(ctx context.Context, id string, mutate func(*domain.Room) error) (*domain.Room, error)
	TouchActivity(ctx context.Context, id string, now time.Time) error
}

type ChatRepository interface {
	Save(ctx context.Context, m *domain.ChatMessage) error
	// History — последние сообщения комнаты с курсорной пагинацией (created_at,id DESC).
	History(ctx context.Context, roomID, after string, limit int) ([]domain.ChatMessage, string, error)
}
