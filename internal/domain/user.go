package domain

import (
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	IsActive     bool       `db:"is_active"`
	LastLogin    *time.Time `db:"last_login"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// NewUser ожидает уже посчитанный хеш пароля.
func NewUser(email, username, passwordHash string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if !emailRe.MatchString(email) {
		return nil, Invalid("please provide a valid email address")
	}
	if len(username) < 3 || len(username) > 30 {
		return nil, Invalid("username must be between 3 and 30 characters")
	}
	if !usernameRe.MatchString(username) {
		return nil, Invalid("username can only contain letters, numbers, underscores and hyphens")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, Invalid("empty password hash")
	}

	return &User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
	}, nil
}
