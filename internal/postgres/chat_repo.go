package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/pollhub/poll-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errBadCursor = errors.New("bad history cursor")

// Курсор истории — base64(json), непрозрачен для клиента.
type historyCursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

func encodeHistoryCursor(createdAt time.Time, id string) string {
	data, _ := json.Marshal(historyCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeHistoryCursor(s string) (*historyCursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errBadCursor
	}
	var c historyCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errBadCursor
	}
	return &c, nil
}

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Save(ctx context.Context, m *domain.ChatMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO room_messages (id, room_id, user_id, username, text, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.RoomID, m.UserID, m.Username, m.Text, m.Kind, m.CreatedAt)
	return err
}

// History возвращает историю сообщений комнаты с курсорной пагинацией (created_at,id DESC).
func (r *ChatRepository) History(ctx context.Context, roomID, after string, limit int) ([]domain.ChatMessage, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := decodeHistoryCursor(after)
	if err != nil {
		return nil, "", domain.Invalid("invalid cursor")
	}

	const baseQuery = `
		SELECT id, room_id, user_id, username, text, kind, created_at
		FROM room_messages
		WHERE room_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, baseQuery, roomID, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Username, &m.Text, &m.Kind, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		next = encodeHistoryCursor(last.CreatedAt, last.ID)
	}
	return out, next, rows.Err()
}
