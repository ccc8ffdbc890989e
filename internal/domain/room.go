package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

type RoomType string

const (
	RoomPublic  RoomType = "public"
	RoomPrivate RoomType = "private"
)

// DefaultBlockedWords — стартовый список для auto-moderation новых комнат.
var DefaultBlockedWords = []string{"spam", "offensive", "inappropriate"}

type SlowMode struct {
	Enabled      bool `json:"enabled"`
	DelaySeconds int  `json:"delaySeconds"`
}

type AutoModeration struct {
	Enabled      bool     `json:"enabled"`
	BlockedWords []string `json:"blockedWords"`
}

type RoomSettings struct {
	SlowMode       SlowMode       `json:"slowMode"`
	MembersOnly    bool           `json:"membersOnly"`
	AutoModeration AutoModeration `json:"autoModeration"`
}

type Ban struct {
	UserID   string    `json:"userId"`
	BannedBy string    `json:"bannedBy"`
	Reason   string    `json:"reason"`
	BannedAt time.Time `json:"bannedAt"`
}

type Room struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Description  string       `db:"description"`
	CreatorID    string       `db:"creator_id"`
	Type         RoomType     `db:"type"`
	Members      []string     `db:"members"`
	Moderators   []string     `db:"moderators"`
	BannedUsers  []Ban        `db:"banned_users"`
	Settings     RoomSettings `db:"settings"`
	CreatedAt    time.Time    `db:"created_at"`
	LastActivity time.Time    `db:"last_activity"`
}

func DefaultSettings() RoomSettings {
	return RoomSettings{
		SlowMode: SlowMode{Enabled: false, DelaySeconds: 5},
		AutoModeration: AutoModeration{
			Enabled:      true,
			BlockedWords: slices.Clone(DefaultBlockedWords),
		},
	}
}

// NewRoom создаёт комнату; создатель сразу член и модератор.
func NewRoom(name, description, creatorID string, roomType RoomType, now time.Time) (*Room, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if len(name) < 3 || len(name) > 30 {
		return nil, Invalid("room name must be between 3 and 30 characters")
	}
	if len(description) > 200 {
		return nil, Invalid("description cannot exceed 200 characters")
	}
	if roomType == "" {
		roomType = RoomPublic
	}
	if roomType != RoomPublic && roomType != RoomPrivate {
		return nil, Invalid("room type must be public or private")
	}

	return &Room{
		Name:         name,
		Description:  description,
		CreatorID:    creatorID,
		Type:         roomType,
		Members:      []string{creatorID},
		Moderators:   []string{creatorID},
		Settings:     DefaultSettings(),
		CreatedAt:    now,
		LastActivity: now,
	}, nil
}

// IsModerator — создатель всегда модератор.
func (r *Room) IsModerator(userID string) bool {
	return r.CreatorID == userID || slices.Contains(r.Moderators, userID)
}

func (r *Room) IsMember(userID string) bool {
	return slices.Contains(r.Members, userID)
}

func (r *Room) IsBanned(userID string) bool {
	for _, b := range r.BannedUsers {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Room) AddMember(userID string) {
	if !r.IsMember(userID) {
		r.Members = append(r.Members, userID)
	}
}

func (r *Room) RemoveMember(userID string) {
	r.Members = slices.DeleteFunc(r.Members, func(id string) bool { return id == userID })
}

func (r *Room) AddModerator(userID string) {
	if !slices.Contains(r.Moderators, userID) {
		r.Moderators = append(r.Moderators, userID)
	}
}

// RemoveModerator не снимает создателя.
func (r *Room) RemoveModerator(userID string) {
	if userID == r.CreatorID {
		return
	}
	r.Moderators = slices.DeleteFunc(r.Moderators, func(id string) bool { return id == userID })
}

// Ban добавляет запись бана и убирает участника из members.
// Привилегированные пользователи сюда попасть не должны — проверка на уровне сервиса.
func (r *Room) Ban(userID, bannedBy, reason string, now time.Time) {
	if r.IsBanned(userID) {
		return
	}
	r.BannedUsers = append(r.BannedUsers, Ban{
		UserID:   userID,
		BannedBy: bannedBy,
		Reason:   reason,
		BannedAt: now,
	})
	r.RemoveMember(userID)
}

// Unban убирает запись бана; членство не восстанавливает.
func (r *Room) Unban(userID string) {
	r.BannedUsers = slices.DeleteFunc(r.BannedUsers, func(b Ban) bool { return b.UserID == userID })
}

// ModerateMessage маскирует запрещённые слова звёздочками той же длины.
// Слова применяются последовательно в порядке хранения, без учёта регистра.
func (r *Room) ModerateMessage(text string) string {
	if !r.Settings.AutoModeration.Enabled {
		return text
	}
	for _, word := range r.Settings.AutoModeration.BlockedWords {
		if word == "" {
			continue
		}
		text = maskWord(text, word)
	}
	return text
}

func maskWord(text, word string) string {
	lower := strings.ToLower(text)
	needle := strings.ToLower(word)
	// длина маски в символах, не в байтах
	mask := strings.Repeat("*", utf8.RuneCountInString(word))

	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(mask)
		text = text[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}

// SettingsPatch — частичное обновление настроек; nil-поля не трогаются.
type SlowModePatch struct {
	Enabled      *bool `json:"enabled"`
	DelaySeconds *int  `json:"delaySeconds"`
}

type AutoModerationPatch struct {
	Enabled      *bool     `json:"enabled"`
	BlockedWords *[]string `json:"blockedWords"`
}

type SettingsPatch struct {
	SlowMode       *SlowModePatch       `json:"slowMode"`
	MembersOnly    *bool                `json:"membersOnly"`
	AutoModeration *AutoModerationPatch `json:"autoModeration"`
}

func (p *SettingsPatch) Validate() error {
	if p.SlowMode != nil && p.SlowMode.DelaySeconds != nil {
		if d := *p.SlowMode.DelaySeconds; d < 1 || d > 300 {
			return Invalid("slow mode delay must be between 1 and 300 seconds")
		}
	}
	return nil
}

// ApplySettings накладывает patch поверх текущих настроек, не затирая
// не указанные вложенные поля.
func (r *Room) ApplySettings(p SettingsPatch) {
	if p.SlowMode != nil {
		if p.SlowMode.Enabled != nil {
			r.Settings.SlowMode.Enabled = *p.SlowMode.Enabled
		}
		if p.SlowMode.DelaySeconds != nil {
			r.Settings.SlowMode.DelaySeconds = *p.SlowMode.DelaySeconds
		}
	}
	if p.MembersOnly != nil {
		r.Settings.MembersOnly = *p.MembersOnly
	}
	if p.AutoModeration != nil {
		if p.AutoModeration.Enabled != nil {
			r.Settings.AutoModeration.Enabled = *p.AutoModeration.Enabled
		}
		if p.AutoModeration.BlockedWords != nil {
			words := make([]string, 0, len(*p.AutoModeration.BlockedWords))
			for _, w := range *p.AutoModeration.BlockedWords {
				if w = strings.TrimSpace(w); w != "" {
					words = append(words, w)
				}
			}
			r.Settings.AutoModeration.BlockedWords = words
		}
	}
}
