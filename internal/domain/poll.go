package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

type PollStatus string

const (
	PollActive  PollStatus = "active"
	PollClosed  PollStatus = "closed"
	PollDeleted PollStatus = "deleted"
)

type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID          string       `db:"id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Options     []PollOption `db:"options"`
	CreatorID   string       `db:"creator_id"`
	Voters      []string     `db:"voters"`
	Status      PollStatus   `db:"status"`
	EndDate     *time.Time   `db:"end_date"`
	TotalVotes  int          `db:"total_votes"`
	CreatedAt   time.Time    `db:"created_at"`
}

// NewPoll валидирует вход; ID опций назначает вызывающий (uuid на уровне сервиса).
func NewPoll(title, description string, options []PollOption, creatorID string, endDate *time.Time, now time.Time) (*Poll, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if len(title) < 3 || len(title) > 100 {
		return nil, Invalid("title must be between 3 and 100 characters")
	}
	if len(description) > 1000 {
		return nil, Invalid("description cannot exceed 1000 characters")
	}
	if len(options) < 2 {
		return nil, Invalid("poll must have at least 2 options")
	}
	for i := range options {
		options[i].Text = strings.TrimSpace(options[i].Text)
		if l := len(options[i].Text); l < 1 || l > 200 {
			return nil, Invalid("option text must be between 1 and 200 characters")
		}
	}
	if endDate != nil && !endDate.After(now) {
		return nil, Invalid("end date must be in the future")
	}

	return &Poll{
		Title:       title,
		Description: description,
		Options:     options,
		CreatorID:   creatorID,
		Status:      PollActive,
		EndDate:     endDate,
		CreatedAt:   now,
	}, nil
}

func (p *Poll) HasVoted(userID string) bool {
	return slices.Contains(p.Voters, userID)
}

func (p *Poll) Expired(now time.Time) bool {
	return p.EndDate != nil && now.After(*p.EndDate)
}

// AddVote — один голос на пользователя; инварианты проверяются здесь,
// атомарность обеспечивает репозиторий (row lock).
func (p *Poll) AddVote(userID, optionID string, now time.Time) error {
	if p.Status != PollActive {
		return ErrPollNotActive
	}
	if p.Expired(now) {
		p.Status = PollClosed
		return ErrPollEnded
	}
	if p.HasVoted(userID) {
		return ErrAlreadyVoted
	}

	for i := range p.Options {
		if p.Options[i].ID == optionID {
			p.Options[i].Votes++
			p.Voters = append(p.Voters, userID)
			p.TotalVotes++
			return nil
		}
	}
	return ErrInvalidOption
}

type PollResult struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

func (p *Poll) Results() []PollResult {
	out := make([]PollResult, 0, len(p.Options))
	for _, opt := range p.Options {
		var pct float64
		if p.TotalVotes > 0 {
			pct = math.Round(float64(opt.Votes)/float64(p.TotalVotes)*10000) / 100
		}
		out = append(out, PollResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: pct,
		})
	}
	return out
}
