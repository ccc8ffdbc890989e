package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/repository"
)

// In-memory репозитории для unit-тестов сервисов. Семантика повторяет
// postgres-реализации: Update/Vote применяют mutate к копии и сохраняют
// результат, ErrNotFound на отсутствующих id.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.users {
		if e.Email == u.Email || e.Username == u.Username {
			return "", repository.ErrAlreadyExists
		}
	}
	f.seq++
	id := fmt.Sprintf("user-%d", f.seq)
	cp := *u
	cp.ID = id
	f.users[id] = &cp
	return id, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastLogin = &now
	}
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

// add вставляет пользователя напрямую, минуя валидацию.
func (f *fakeUserRepo) add(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	seq   int
	rooms map[string]*domain.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*domain.Room)}
}

func (f *fakeRoomRepo) Create(_ context.Context, r *domain.Room) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("room-%d", f.seq)
	r.ID = id
	cp := *r
	f.rooms[id] = &cp
	return id, nil
}

func (f *fakeRoomRepo) Get(_ context.Context, id string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoomRepo) ListVisible(_ context.Context, userID string) ([]domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		if r.Type == domain.RoomPublic || r.IsMember(userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRoomRepo) Update(_ context.Context, id string, mutate func(*domain.Room) error) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	f.rooms[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRoomRepo) TouchActivity(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[id]; ok {
		r.LastActivity = now
	}
	return nil
}

func (f *fakeRoomRepo) add(r domain.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[r.ID] = &r
}

type fakePollRepo struct {
	mu    sync.Mutex
	seq   int
	polls map[string]*domain.Poll
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[string]*domain.Poll)}
}

func (f *fakePollRepo) Create(_ context.Context, p *domain.Poll) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("poll-%d", f.seq)
	p.ID = id
	cp := *p
	f.polls[id] = &cp
	return id, nil
}

func (f *fakePollRepo) Get(_ context.Context, id string) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.polls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePollRepo) ListByStatus(_ context.Context, status domain.PollStatus) ([]domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Poll, 0)
	for _, p := range f.polls {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePollRepo) Vote(_ context.Context, id string, mutate func(*domain.Poll) error) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.polls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	if err := mutate(&cp); err != nil {
		// как и в postgres-реализации, смена статуса при отказе сохраняется
		p.Status = cp.Status
		return nil, err
	}
	f.polls[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakePollRepo) SetStatus(_ context.Context, id string, status domain.PollStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.polls[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePollRepo) CloseExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.polls {
		if p.Status == domain.PollActive && p.Expired(now) {
			p.Status = domain.PollClosed
			n++
		}
	}
	return n, nil
}

type fakeChatRepo struct {
	mu   sync.Mutex
	seq  int
	msgs []domain.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo { return &fakeChatRepo{} }

func (f *fakeChatRepo) Save(_ context.Context, m *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if m.ID == "" {
		m.ID = fmt.Sprintf("msg-%d", f.seq)
	}
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeChatRepo) History(_ context.Context, roomID, _ string, limit int) ([]domain.ChatMessage, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChatMessage, 0)
	for i := len(f.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.msgs[i].RoomID == roomID {
			out = append(out, f.msgs[i])
		}
	}
	return out, "", nil
}

// fakeEvents записывает события, которые сервис отдал бы live-соединениям.
type fakeEvents struct {
	mu      sync.Mutex
	updates []string // roomID+"/"+eventType
	kicked  []string // userID+"/"+roomID
}

func (f *fakeEvents) RoomUpdated(roomID, eventType string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, roomID+"/"+eventType)
}

func (f *fakeEvents) ForceLeave(userID, roomID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, userID+"/"+roomID)
}

// fakeCooldowns всегда отвечает заранее заданным результатом.
type fakeCooldowns struct {
	wait    int
	allowed bool
	calls   int
}

func (f *fakeCooldowns) CheckSlowMode(_, _ string, _ int, _ time.Time) (int, bool) {
	f.calls++
	return f.wait, f.allowed
}
