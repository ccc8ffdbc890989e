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

type PollRepository struct {
	db *pgxpool.Pool
}

func NewPollRepository(db *pgxpool.Pool) *PollRepository {
	return &PollRepository{db: db}
}

const pollColumns = `id, title, description, options, creator_id, voters, status, end_date, total_votes, created_at`

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var (
		p       domain.Poll
		options []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &options, &p.CreatorID, &p.Voters,
		&p.Status, &p.EndDate, &p.TotalVotes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(options, &p.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if p.Voters == nil {
		p.Voters = []string{}
	}
	return &p, nil
}

func (r *PollRepository) Create(ctx context.Context, p *domain.Poll) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	options, err := json.Marshal(p.Options)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO polls (id, title, description, options, creator_id, voters, status, end_date, total_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Title, p.Description, options, p.CreatorID, p.Voters, p.Status, p.EndDate, p.TotalVotes, p.CreatedAt)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (r *PollRepository) Get(ctx context.Context, id string) (*domain.Poll, error) {
	return scanPoll(r.db.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id=$1`, id))
}

func (r *PollRepository) ListByStatus(ctx context.Context, status domain.PollStatus) ([]domain.Poll, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+pollColumns+` FROM polls WHERE status=$1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Vote — read-modify-write под row lock, чтобы два параллельных голоса
// одного пользователя не прошли оба.
func (r *PollRepository) Vote(ctx context.Context, id string, mutate func(*domain.Poll) error) (*domain.Poll, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := scanPoll(tx.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := mutate(p); err != nil {
		// мутация могла пометить poll закрытым (истёкший end_date) — фиксируем
		if _, werr := tx.Exec(ctx, `UPDATE polls SET status=$2 WHERE id=$1`, id, p.Status); werr == nil {
			_ = tx.Commit(ctx)
		}
		return nil, err
	}

	options, err := json.Marshal(p.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE polls SET options=$2, voters=$3, status=$4, total_votes=$5 WHERE id=$1
	`, id, options, p.Voters, p.Status, p.TotalVotes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepository) SetStatus(ctx context.Context, id string, status domain.PollStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE polls SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PollRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE polls SET status=$1
		WHERE status=$2 AND end_date IS NOT NULL AND end_date < $3
	`, domain.PollClosed, domain.PollActive, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
