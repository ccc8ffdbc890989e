package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, description, creator_id, type, members, moderators, banned_users, settings, created_at, last_activity`

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		rm       domain.Room
		banned   []byte
		settings []byte
	)
	err := row.Scan(&rm.ID, &rm.Name, &rm.Description, &rm.CreatorID, &rm.Type,
		&rm.Members, &rm.Moderators, &banned, &settings, &rm.CreatedAt, &rm.LastActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(banned, &rm.BannedUsers); err != nil {
		return nil, fmt.Errorf("decode banned_users: %w", err)
	}
	if err := json.Unmarshal(settings, &rm.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if rm.Members == nil {
		rm.Members = []string{}
	}
	if rm.Moderators == nil {
		rm.Moderators = []string{}
	}
	return &rm, nil
}

func encodeRoom(rm *domain.Room) (banned, settings []byte, err error) {
	bans := rm.BannedUsers
	if bans == nil {
		bans = []domain.Ban{}
	}
	if banned, err = json.Marshal(bans); err != nil {
		return nil, nil, fmt.Errorf("encode banned_users: %w", err)
	}
	if settings, err = json.Marshal(rm.Settings); err != nil {
		return nil, nil, fmt.Errorf("encode settings: %w", err)
	}
	return banned, settings, nil
}

func (r *RoomRepository) Create(ctx context.Context, rm *domain.Room) (string, error) {
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	banned, settings, err := encodeRoom(rm)
	if err != nil {
		return "", err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rooms (id, name, description, creator_id, type, members, moderators, banned_users, settings, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rm.ID, rm.Name, rm.Description, rm.CreatorID, rm.Type, rm.Members, rm.Moderators, banned, settings, rm.CreatedAt, rm.LastActivity)
	if err != nil {
		return "", err
	}
	return rm.ID, nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id))
}

func (r *RoomRepository) ListVisible(ctx context.Context, userID string) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+roomColumns+` FROM rooms
		WHERE type='public' OR (type='private' AND $1 = ANY(members))
		ORDER BY last_activity DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// Update — единый путь мутации комнаты: чтение под row lock, mutate, запись.
// Параллельные баны/настройки по одной комнате сериализуются на строке.
func (r *RoomRepository) Update(ctx context.Context, id string, mutate func(*domain.Room) error) (*domain.Room, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rm, err := scanRoom(tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(rm); err != nil {
		return nil, err
	}

	banned, settings, err := encodeRoom(rm)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE rooms SET members=$2, moderators=$3, banned_users=$4, settings=$5, last_activity=$6 WHERE id=$1
	`, id, rm.Members, rm.Moderators, banned, settings, rm.LastActivity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *RoomRepository) TouchActivity(ctx context.Context, id string, now time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rooms SET last_activity=$2 WHERE id=$1`, id, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
