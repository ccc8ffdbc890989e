package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/security"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	signer := security.NewJWTSigner([]byte("test-secret"), "poll-service", time.Hour, 0, fixed)
	// минимальный cost, чтобы тесты не упирались в bcrypt
	svc := NewAuthService(users, signer, security.BcryptConfig{Cost: 4}, fixed)
	return svc, users
}

func TestRegister_IssuesWorkingToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Register(context.Background(), "alice@example.com", "secret1", "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("token missing")
	}
	if res.User.Role != domain.RoleUser || !res.User.IsActive {
		t.Fatalf("unexpected user defaults: %+v", res.User)
	}

	// токен сразу пригоден для Identify
	u, err := svc.Identify(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if u.ID != res.User.ID {
		t.Fatalf("identity mismatch: %s vs %s", u.ID, res.User.ID)
	}
}

func TestRegister_DuplicateEmailAndUsername(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, err := svc.Register(context.Background(), "alice@example.com", "secret1", "alice"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := svc.Register(context.Background(), "alice@example.com", "secret1", "other"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if _, err := svc.Register(context.Background(), "other@example.com", "secret1", "alice"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("duplicate username: got %v", err)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, err := svc.Register(context.Background(), "a@example.com", "12345", "alice"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestLogin(t *testing.T) {
	svc, users := newAuthFixture(t)
	reg, err := svc.Register(context.Background(), "alice@example.com", "secret1", "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatal("login must return the registered user")
	}

	stored, _ := users.GetByID(context.Background(), reg.User.ID)
	if stored.LastLogin == nil || !stored.LastLogin.Equal(svcNow) {
		t.Fatal("last login must be touched")
	}

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	reg, _ := svc.Register(context.Background(), "alice@example.com", "secret1", "alice")
	_ = users.SetActive(context.Background(), reg.User.ID, false)

	if _, err := svc.Login(context.Background(), "alice@example.com", "secret1"); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("got %v, want ErrAccountDisabled", err)
	}
	// выданный ранее токен тоже перестаёт работать
	if _, err := svc.Identify(context.Background(), reg.AccessToken); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("identify disabled: got %v", err)
	}
}

func TestIdentify_BadToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, err := svc.Identify(context.Background(), "garbage"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestAdmin_SetUserStatus(t *testing.T) {
	svc, users := newAuthFixture(t)
	admin := NewAdminService(users, NewPollService(newFakePollRepo(), fixed))

	reg, _ := svc.Register(context.Background(), "alice@example.com", "secret1", "alice")
	users.add(domain.User{ID: "admin-1", Email: "root@example.com", Username: "root", Role: domain.RoleAdmin, IsActive: true})

	u, err := admin.SetUserStatus(context.Background(), reg.User.ID, false)
	if err != nil {
		t.Fatalf("SetUserStatus: %v", err)
	}
	if u.IsActive {
		t.Fatal("user must be deactivated")
	}

	if _, err := admin.SetUserStatus(context.Background(), "admin-1", false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("admin target: got %v, want ErrInvalidInput", err)
	}
	if _, err := admin.SetUserStatus(context.Background(), "ghost", false); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown target: got %v", err)
	}
}
