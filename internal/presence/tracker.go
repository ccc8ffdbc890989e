package presence

import (
	"math"
	"sync"
	"time"
)

// Entry — живое состояние одного соединения.
type Entry struct {
	UserID   string
	Username string
	rooms    map[string]struct{}
}

// Tracker владеет картами соединений и cooldown-записями slow mode.
// Всё состояние процесс-локальное, без персистентности; доступ только
// через методы, под мьютексом.
type Tracker struct {
	mu        sync.Mutex
	conns     map[string]*Entry    // connID -> entry
	cooldowns map[string]time.Time // roomID+"/"+userID -> время последнего принятого сообщения
}

func NewTracker() *Tracker {
	return &Tracker{
		conns:     make(map[string]*Entry),
		cooldowns: make(map[string]time.Time),
	}
}

// Register создаёт запись с пустым набором комнат. Повторная регистрация
// того же connID перезаписывает identity, сохраняя комнаты.
func (t *Tracker) Register(connID, userID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.conns[connID]; ok {
		e.UserID = userID
		e.Username = username
		return
	}
	t.conns[connID] = &Entry{
		UserID:   userID,
		Username: username,
		rooms:    make(map[string]struct{}),
	}
}

// Forget удаляет запись и возвращает комнаты, в которых соединение состояло.
// Для незарегистрированного connID — no-op (ok=false).
func (t *Tracker) Forget(connID string) (userID, username string, rooms []string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.conns[connID]
	if !found {
		return "", "", nil, false
	}
	delete(t.conns, connID)

	rooms = make([]string, 0, len(e.rooms))
	for r := range e.rooms {
		rooms = append(rooms, r)
	}
	return e.UserID, e.Username, rooms, true
}

func (t *Tracker) RecordJoin(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.conns[connID]; ok {
		e.rooms[roomID] = struct{}{}
	}
}

func (t *Tracker) RecordLeave(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.conns[connID]; ok {
		delete(e.rooms, roomID)
	}
}

func (t *Tracker) IdentityOf(connID string) (userID, username string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.conns[connID]
	if !found {
		return "", "", false
	}
	return e.UserID, e.Username, true
}

// ConnsOf — все соединения пользователя (их может быть несколько вкладок).
func (t *Tracker) ConnsOf(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for connID, e := range t.conns {
		if e.UserID == userID {
			out = append(out, connID)
		}
	}
	return out
}

func (t *Tracker) InRoom(connID, roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.conns[connID]
	if !ok {
		return false
	}
	_, ok = e.rooms[roomID]
	return ok
}

// Count — число живых соединений (для users_online).
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.conns)
}

// CheckSlowMode: allowed=true — сообщение принято, cooldown обновлён на now.
// Иначе wait — сколько целых секунд осталось ждать (ceil).
// Обход для модераторов решает вызывающий, здесь только политика интервала.
func (t *Tracker) CheckSlowMode(roomID, userID string, delaySeconds int, now time.Time) (wait int, allowed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := roomID + "/" + userID
	last, ok := t.cooldowns[key]
	if ok {
		elapsed := now.Sub(last).Seconds()
		if elapsed < float64(delaySeconds) {
			return int(math.Ceil(float64(delaySeconds) - elapsed)), false
		}
	}
	t.cooldowns[key] = now
	return 0, true
}

// Reset очищает всё состояние; вызывается на shutdown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conns = make(map[string]*Entry)
	t.cooldowns = make(map[string]time.Time)
}
