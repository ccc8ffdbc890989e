package http

import (
	"time"

	"github.com/pollhub/poll-service/internal/domain"
)

type ErrorResponse struct {
	Message     string `json:"message"`
	WaitSeconds int    `json:"waitSeconds,omitempty"`
}

// --- auth ---

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserItem struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role,omitempty"`
	IsActive  bool        `json:"isActive"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserItem `json:"user"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// --- polls ---

type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	EndDate     *time.Time `json:"endDate"`
}

type VoteRequest struct {
	OptionID string `json:"optionId"`
}

type PollItem struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Options     []domain.PollOption `json:"options"`
	CreatorID   string              `json:"creatorId"`
	Status      domain.PollStatus   `json:"status"`
	EndDate     *time.Time          `json:"endDate,omitempty"`
	TotalVotes  int                 `json:"totalVotes"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type PollStatusRequest struct {
	Status domain.PollStatus `json:"status"`
}

func toPollItem(p *domain.Poll) PollItem {
	return PollItem{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Options:     p.Options,
		CreatorID:   p.CreatorID,
		Status:      p.Status,
		EndDate:     p.EndDate,
		TotalVotes:  p.TotalVotes,
		CreatedAt:   p.CreatedAt,
	}
}

// --- rooms ---

type CreateRoomRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        domain.RoomType `json:"type"`
}

type RoomItem struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	CreatorID    string              `json:"creatorId"`
	Type         domain.RoomType     `json:"type"`
	Members      []string            `json:"members"`
	Moderators   []string            `json:"moderators"`
	Settings     domain.RoomSettings `json:"settings"`
	LastActivity time.Time           `json:"lastActivity"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func toRoomItem(r *domain.Room) RoomItem {
	return RoomItem{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		CreatorID:    r.CreatorID,
		Type:         r.Type,
		Members:      r.Members,
		Moderators:   r.Moderators,
		Settings:     r.Settings,
		LastActivity: r.LastActivity,
		CreatedAt:    r.CreatedAt,
	}
}

type JoinRoomResponse struct {
	Message string         `json:"message"`
	Room    JoinedRoomItem `json:"room"`
}

type JoinedRoomItem struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        domain.RoomType     `json:"type"`
	Settings    domain.RoomSettings `json:"settings"`
	IsModerator bool                `json:"isModerator"`
}

type BanRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

type UnbanRequest struct {
	UserID string `json:"userId"`
}

type ModeratorRequest struct {
	UserID string `json:"userId"`
}

type UpdateSettingsRequest struct {
	Settings domain.SettingsPatch `json:"settings"`
}

type UserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

type ChatMessageItem struct {
	ID        string             `json:"id"`
	RoomID    string             `json:"roomId"`
	UserID    string             `json:"userId"`
	Username  string             `json:"username"`
	Text      string             `json:"text"`
	Kind      domain.MessageKind `json:"kind"`
	CreatedAt time.Time          `json:"createdAt"`
}

type ChatHistoryResponse struct {
	Items      []ChatMessageItem `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}
