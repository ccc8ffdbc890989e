package domain

import "time"

type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageSystem MessageKind = "system"
)

type ChatMessage struct {
	ID        string      `db:"id"`
	RoomID    string      `db:"room_id"`
	UserID    string      `db:"user_id"`
	Username  string      `db:"username"`
	Text      string      `db:"text"`
	Kind      MessageKind `db:"kind"`
	CreatedAt time.Time   `db:"created_at"`
}
