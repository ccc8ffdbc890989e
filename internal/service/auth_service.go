package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"
	"github.com/pollhub/poll-service/internal/security"
)

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

type AuthService struct {
	users      repository.UserRepository
	jwt        *security.JWTSigner
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, jwt *security.JWTSigner, passPolicy security.BcryptConfig, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:      users,
		jwt:        jwt,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	existing, err := s.users.GetByEmailOrUsername(ctx, email, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("auth.register.lookupExisting failed", slog.Any("err", err))
		return nil, err
	}
	if existing != nil {
		if existing.Email == email {
			return nil, domain.Invalid("email already registered")
		}
		return nil, domain.Invalid("username already taken")
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, domain.Invalid("password must be at least 6 characters long")
		}
		slog.Error("auth.register.hashPassword failed", slog.Any("err", err))
		return nil, err
	}

	now := s.now()
	u, err := domain.NewUser(email, username, hash, now)
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.Invalid("email or username already taken")
		}
		slog.Error("auth.register.createUser failed", slog.Any("err", err))
		return nil, err
	}
	u.ID = id

	token, err := s.jwt.SignAccessToken(u.ID, now)
	if err != nil {
		slog.Error("auth.register.signToken failed", slog.Any("err", err))
		return nil, err
	}

	return &AuthResult{User: u, AccessToken: token}, nil
}

// Login аутентифицирует по email+пароль и выпускает access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		slog.Error("auth.login.getByEmail failed", slog.Any("err", err))
		return nil, err
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	now := s.now()
	token, err := s.jwt.SignAccessToken(u.ID, now)
	if err != nil {
		slog.Error("auth.login.signToken failed", slog.Any("err", err))
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		// best-effort, вход не блокируем
		slog.Debug("auth.login.touchLastLogin failed", slog.Any("err", err))
	}

	return &AuthResult{User: u, AccessToken: token}, nil
}

// Identify проверяет access token и возвращает активного пользователя.
func (s *AuthService) Identify(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	return u, nil
}
