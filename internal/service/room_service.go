package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"
)

// RoomEvents — порт для рассылки событий модерации живым соединениям.
// Реализуется ws-транспортом; все рассылки best-effort.
type RoomEvents interface {
	RoomUpdated(roomID, eventType string, payload map[string]any)
	ForceLeave(userID, roomID, reason string)
}

type noopEvents struct{}

func (noopEvents) RoomUpdated(string, string, map[string]any) {}
func (noopEvents) ForceLeave(string, string, string)          {}

// RoomService — реестр комнат и правила модерации. Все мутирующие операции
// принимают caller и проверяют привилегии здесь, под row lock репозитория,
// чтобы ни один вход (HTTP или ws) не мог их обойти.
type RoomService struct {
	rooms  repository.RoomRepository
	users  repository.UserRepository
	events RoomEvents
	now    func() time.Time
}

func NewRoomService(rooms repository.RoomRepository, users repository.UserRepository, now func() time.Time) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:  rooms,
		users:  users,
		events: noopEvents{},
		now:    now,
	}
}

// SetEvents подключает live-рассылку; до вызова события отбрасываются.
func (s *RoomService) SetEvents(ev RoomEvents) {
	if ev != nil {
		s.events = ev
	}
}

func (s *RoomService) Create(ctx context.Context, creatorID, name, description string, roomType domain.RoomType) (*domain.Room, error) {
	room, err := domain.NewRoom(name, description, creatorID, roomType, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("roomRepo.Create: %w", err)
	}
	return room, nil
}

// ListVisible — все публичные плюс приватные, где userID член.
func (s *RoomService) ListVisible(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.rooms.ListVisible(ctx, userID)
}

func (s *RoomService) Get(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// AttemptJoin — проверка бана всегда раньше проверок членства: забаненный
// не проходит, даже если формально член. Успех добавляет в members.
func (s *RoomService) AttemptJoin(ctx context.Context, userID, roomID string) (room *domain.Room, isModerator bool, err error) {
	room, err = s.Get(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	if room.IsBanned(userID) {
		return nil, false, domain.ErrBanned
	}
	if room.Settings.MembersOnly && !room.IsMember(userID) {
		return nil, false, domain.ErrMembersOnly
	}
	if room.Type == domain.RoomPrivate && !room.IsMember(userID) {
		return nil, false, domain.ErrPrivateRoom
	}

	if !room.IsMember(userID) {
		room, err = s.rooms.Update(ctx, roomID, func(r *domain.Room) error {
			// состояние могло уехать между Get и lock — проверяем бан заново
			if r.IsBanned(userID) {
				return domain.ErrBanned
			}
			r.AddMember(userID)
			return nil
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, false, domain.ErrRoomNotFound
			}
			return nil, false, err
		}
	}

	return room, room.IsModerator(userID), nil
}

// AddModerator доступен только создателю комнаты.
func (s *RoomService) AddModerator(ctx context.Context, callerID, roomID, targetID string) (*domain.Room, error) {
	target, err := s.userByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		if r.CreatorID != callerID {
			return domain.ErrNotCreator
		}
		r.AddModerator(targetID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.RoomUpdated(roomID, "moderator_added", map[string]any{
		"moderator": target.Username,
	})
	return room, nil
}

// RemoveModerator: создатель снят быть не может.
func (s *RoomService) RemoveModerator(ctx context.Context, callerID, roomID, targetID string) (*domain.Room, error) {
	target, err := s.userByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		if r.CreatorID != callerID {
			return domain.ErrNotCreator
		}
		if targetID == r.CreatorID {
			return domain.ErrNotAuthorized
		}
		r.RemoveModerator(targetID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.RoomUpdated(roomID, "moderator_removed", map[string]any{
		"moderator": target.Username,
	})
	return room, nil
}

// Ban: только модераторы; создателя и модераторов банить нельзя.
// Успех снимает членство и принудительно выводит живые соединения из комнаты.
func (s *RoomService) Ban(ctx context.Context, callerID, roomID, targetID, reason string) error {
	target, err := s.userByID(ctx, targetID)
	if err != nil {
		return err
	}

	_, err = s.update(ctx, roomID, func(r *domain.Room) error {
		if !r.IsModerator(callerID) {
			return domain.ErrNotModerator
		}
		if targetID == r.CreatorID || r.IsModerator(targetID) {
			return domain.ErrPrivilegedBan
		}
		r.Ban(targetID, callerID, reason, s.now())
		return nil
	})
	if err != nil {
		return err
	}

	s.events.RoomUpdated(roomID, "user_banned", map[string]any{
		"user":   target.Username,
		"reason": reason,
	})
	s.events.ForceLeave(targetID, roomID, "You have been banned from this room")
	return nil
}

// Unban снимает запись бана; членство не восстанавливает.
func (s *RoomService) Unban(ctx context.Context, callerID, roomID, targetID string) error {
	target, err := s.userByID(ctx, targetID)
	if err != nil {
		return err
	}

	_, err = s.update(ctx, roomID, func(r *domain.Room) error {
		if !r.IsModerator(callerID) {
			return domain.ErrNotModerator
		}
		r.Unban(targetID)
		return nil
	})
	if err != nil {
		return err
	}

	s.events.RoomUpdated(roomID, "user_unbanned", map[string]any{
		"user": target.Username,
	})
	return nil
}

// UpdateSettings: модераторы; частичный merge, не затирающий не указанные поля.
func (s *RoomService) UpdateSettings(ctx context.Context, callerID, roomID string, patch domain.SettingsPatch) (*domain.Room, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		if !r.IsModerator(callerID) {
			return domain.ErrNotModerator
		}
		r.ApplySettings(patch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.RoomUpdated(roomID, "settings_updated", map[string]any{
		"settings": room.Settings,
	})
	return room, nil
}

func (s *RoomService) update(ctx context.Context, roomID string, mutate func(*domain.Room) error) (*domain.Room, error) {
	room, err := s.rooms.Update(ctx, roomID, mutate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *RoomService) userByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
