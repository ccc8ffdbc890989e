package ws

import (
	"encoding/json"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

// Типы событий realtime-канала
const (
	// client -> server
	TypeUserConnected = "user_connected" // регистрация presence после апгрейда
	TypeJoinRoom      = "join_room"
	TypeLeaveRoom     = "leave_room"
	TypeChatMessage   = "chat_message" // в обе стороны

	// server -> client
	TypeRoomJoined     = "room_joined"
	TypeUsersOnline    = "users_online"
	TypeRoomUpdated    = "room_updated"
	TypeForceLeaveRoom = "force_leave_room"
	TypeError          = "error" // только отправителю, не broadcast
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type ChatInPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type ChatOutPayload struct {
	RoomID    string             `json:"roomId,omitempty"`
	UserID    string             `json:"userId"`
	Username  string             `json:"username"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	Kind      domain.MessageKind `json:"kind"`
}

type RoomJoinedPayload struct {
	RoomID      string              `json:"roomId"`
	Name        string              `json:"name"`
	Settings    domain.RoomSettings `json:"settings"`
	IsModerator bool                `json:"isModerator"`
}

type UsersOnlinePayload struct {
	Count int `json:"count"`
}

type ForceLeavePayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message     string `json:"message"`
	WaitSeconds int    `json:"waitSeconds,omitempty"`
}

func chatOut(m *domain.ChatMessage) Message {
	return Message{
		Type: TypeChatMessage,
		Payload: ChatOutPayload{
			RoomID:    m.RoomID,
			UserID:    m.UserID,
			Username:  m.Username,
			Text:      m.Text,
			Timestamp: m.CreatedAt,
			Kind:      m.Kind,
		},
	}
}

// decode перегоняет произвольный payload в типизированную структуру.
func decode(payload any, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
