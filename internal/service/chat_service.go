package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"
)

const maxMessageLen = 4000

// Cooldowns — хранилище slow-mode записей; владеет им Presence Tracker.
type Cooldowns interface {
	CheckSlowMode(roomID, userID string, delaySeconds int, now time.Time) (wait int, allowed bool)
}

// ChatService — конвейер входящего сообщения: валидация, бан, slow mode,
// auto-moderation, персист, отметка активности комнаты.
type ChatService struct {
	rooms     repository.RoomRepository
	chat      repository.ChatRepository
	cooldowns Cooldowns
	now       func() time.Time
}

func NewChatService(rooms repository.RoomRepository, chat repository.ChatRepository, cooldowns Cooldowns, now func() time.Time) *ChatService {
	if now == nil {
		now = time.Now
	}
	return &ChatService{
		rooms:     rooms,
		chat:      chat,
		cooldowns: cooldowns,
		now:       now,
	}
}

// Ingest прогоняет сообщение через все проверки и возвращает готовое к
// рассылке сообщение с серверным timestamp. Ошибки:
// ErrInvalidInput / ErrRoomNotFound — транспорт молча отбрасывает,
// ErrBanned / SlowModeError — доставляются только отправителю.
func (s *ChatService) Ingest(ctx context.Context, roomID, userID, username, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || roomID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(text) > maxMessageLen {
		return nil, domain.Invalid("message too long")
	}

	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	if room.IsBanned(userID) {
		return nil, domain.ErrBanned
	}

	moderator := room.IsModerator(userID)
	now := s.now()

	if room.Settings.SlowMode.Enabled && !moderator {
		if wait, ok := s.cooldowns.CheckSlowMode(roomID, userID, room.Settings.SlowMode.DelaySeconds, now); !ok {
			return nil, &domain.SlowModeError{WaitSeconds: wait}
		}
	}

	if !moderator {
		text = room.ModerateMessage(text)
	}

	msg := &domain.ChatMessage{
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Text:      text,
		Kind:      domain.MessageUser,
		CreatedAt: now,
	}

	if err := s.chat.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("chatRepo.Save: %w", err)
	}
	if err := s.rooms.TouchActivity(ctx, roomID, now); err != nil {
		// активность — best-effort, сообщение уже сохранено
		slog.Warn("chat.touchActivity failed", "room", roomID, "err", err)
	}

	return msg, nil
}

// SaveSystem персистит системное сообщение (join/leave/модерация); best-effort.
func (s *ChatService) SaveSystem(ctx context.Context, roomID, text string) *domain.ChatMessage {
	msg := &domain.ChatMessage{
		RoomID:    roomID,
		UserID:    "system",
		Username:  "System",
		Text:      text,
		Kind:      domain.MessageSystem,
		CreatedAt: s.now(),
	}
	if err := s.chat.Save(ctx, msg); err != nil {
		slog.Debug("chat.saveSystem failed", "room", roomID, "err", err)
	}
	return msg
}

// History отдаёт историю комнаты. Бан закрывает историю всегда,
// members-only и приватные комнаты читают только участники.
func (s *ChatService) History(ctx context.Context, userID, roomID, after string, limit int) ([]domain.ChatMessage, string, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", domain.ErrRoomNotFound
		}
		return nil, "", err
	}
	if room.IsBanned(userID) {
		return nil, "", domain.ErrBanned
	}
	if !room.IsMember(userID) && !room.IsModerator(userID) {
		if room.Settings.MembersOnly {
			return nil, "", domain.ErrMembersOnly
		}
		if room.Type == domain.RoomPrivate {
			return nil, "", domain.ErrPrivateRoom
		}
	}
	return s.chat.History(ctx, roomID, after, limit)
}
