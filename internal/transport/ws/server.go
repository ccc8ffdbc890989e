package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/presence"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type AuthSvc interface {
	Identify(ctx context.Context, token string) (*domain.User, error)
}

type RoomSvc interface {
	AttemptJoin(ctx context.Context, userID, roomID string) (*domain.Room, bool, error)
}

type ChatSvc interface {
	Ingest(ctx context.Context, roomID, userID, username, text string) (*domain.ChatMessage, error)
	SaveSystem(ctx context.Context, roomID, text string) *domain.ChatMessage
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	tracker  *presence.Tracker
	authSvc  AuthSvc
	roomSvc  RoomSvc
	chatSvc  ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, tracker *presence.Tracker, auth AuthSvc, room RoomSvc, chat ChatSvc) *Server {
	return &Server{
		hub:     hub,
		tracker: tracker,
		authSvc: auth,
		roomSvc: room,
		chatSvc: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...
// Identity берётся только из токена; полям клиентских payload-ов не доверяем.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	user, err := s.authSvc.Identify(r.Context(), accessToken)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, uuid.NewString())
	s.hub.Add(c)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c, user)

	// readLoop вернулся — соединение мертво; cleanup ровно один раз,
	// в том числе для отвалившихся до user_connected.
	s.disconnect(context.WithoutCancel(r.Context()), c)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", user.ID, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, user *domain.User) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // мусор на границе — молча отбрасываем
		}

		switch msg.Type {
		case TypeUserConnected:
			s.handleConnected(c, user)
		case TypeJoinRoom:
			s.handleJoin(ctx, c, user, msg.Payload)
		case TypeLeaveRoom:
			s.handleLeave(ctx, c, user, msg.Payload)
		case TypeChatMessage:
			s.handleChat(ctx, c, msg.Payload)
		default:
			// ignore
		}
	}
}

func (s *Server) handleConnected(c *wsConn, user *domain.User) {
	s.tracker.Register(c.ID(), user.ID, user.Username)

	s.hub.BroadcastAllExcept(Message{
		Type: TypeChatMessage,
		Payload: ChatOutPayload{
			UserID:    "system",
			Username:  "System",
			Text:      fmt.Sprintf("%s joined the chat", user.Username),
			Timestamp: time.Now(),
			Kind:      domain.MessageSystem,
		},
	}, c.ID())

	s.broadcastOnline()
}

func (s *Server) handleJoin(ctx context.Context, c *wsConn, user *domain.User, payload any) {
	var p JoinRoomPayload
	if decode(payload, &p) != nil || p.RoomID == "" {
		return
	}
	if _, _, ok := s.tracker.IdentityOf(c.ID()); !ok {
		return // присоединение до user_connected
	}

	room, isModerator, err := s.roomSvc.AttemptJoin(ctx, user.ID, p.RoomID)
	if err != nil {
		s.sendError(c, err)
		return
	}

	s.hub.Join(c.ID(), p.RoomID)
	s.tracker.RecordJoin(c.ID(), p.RoomID)

	sys := s.chatSvc.SaveSystem(ctx, p.RoomID, fmt.Sprintf("%s joined the room", user.Username))
	s.hub.BroadcastExcept(p.RoomID, chatOut(sys), c.ID())

	_ = c.Send(Message{
		Type: TypeRoomJoined,
		Payload: RoomJoinedPayload{
			RoomID:      room.ID,
			Name:        room.Name,
			Settings:    room.Settings,
			IsModerator: isModerator,
		},
	})
}

func (s *Server) handleLeave(ctx context.Context, c *wsConn, user *domain.User, payload any) {
	var p JoinRoomPayload
	if decode(payload, &p) != nil || p.RoomID == "" {
		return
	}
	if !s.tracker.InRoom(c.ID(), p.RoomID) {
		return
	}

	s.hub.Leave(c.ID(), p.RoomID)
	s.tracker.RecordLeave(c.ID(), p.RoomID)

	sys := s.chatSvc.SaveSystem(ctx, p.RoomID, fmt.Sprintf("%s left the room", user.Username))
	s.hub.Broadcast(p.RoomID, chatOut(sys))
}

func (s *Server) handleChat(ctx context.Context, c *wsConn, payload any) {
	var p ChatInPayload
	if decode(payload, &p) != nil {
		return
	}
	userID, username, ok := s.tracker.IdentityOf(c.ID())
	if !ok {
		return // неизвестный отправитель — молча отбрасываем
	}

	msg, err := s.chatSvc.Ingest(ctx, p.RoomID, userID, username, p.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrRoomNotFound):
			// malformed вход — без ответа
		case errors.Is(err, domain.ErrBanned):
			s.sendError(c, err)
		default:
			var slow *domain.SlowModeError
			if errors.As(err, &slow) {
				s.sendError(c, err)
				return
			}
			slog.Warn("ws chat ingest failed", "room", p.RoomID, "user", userID, "err", err)
			_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Message: "Failed to send message"}})
		}
		return
	}

	s.hub.Broadcast(msg.RoomID, chatOut(msg))
}

// disconnect: уведомление "left the room" в каждую комнату записи,
// удаление presence, пересчёт users_online. Идемпотентно.
func (s *Server) disconnect(ctx context.Context, c *wsConn) {
	_, username, rooms, ok := s.tracker.Forget(c.ID())
	s.hub.Remove(c.ID())
	if !ok {
		return
	}

	for _, roomID := range rooms {
		sys := s.chatSvc.SaveSystem(ctx, roomID, fmt.Sprintf("%s left the room", username))
		s.hub.Broadcast(roomID, chatOut(sys))
	}

	s.broadcastOnline()
}

func (s *Server) broadcastOnline() {
	s.hub.BroadcastAll(Message{
		Type:    TypeUsersOnline,
		Payload: UsersOnlinePayload{Count: s.tracker.Count()},
	})
}

func (s *Server) sendError(c *wsConn, err error) {
	p := ErrorPayload{Message: errText(err)}
	var slow *domain.SlowModeError
	if errors.As(err, &slow) {
		p.WaitSeconds = slow.WaitSeconds
	}
	_ = c.Send(Message{Type: TypeError, Payload: p})
}

func errText(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrBanned):
		return "You are banned from this room"
	case errors.Is(err, domain.ErrMembersOnly):
		return "This room is for members only"
	case errors.Is(err, domain.ErrPrivateRoom):
		return "Cannot join private room"
	default:
		var slow *domain.SlowModeError
		if errors.As(err, &slow) {
			return fmt.Sprintf("Slow mode is enabled. Please wait %d seconds.", slow.WaitSeconds)
		}
		return "Failed to join room"
	}
}

// --- service.RoomEvents ---

// RoomUpdated рассылает событие модерации всем соединениям комнаты.
func (s *Server) RoomUpdated(roomID, eventType string, payload map[string]any) {
	body := map[string]any{"type": eventType, "roomId": roomID}
	for k, v := range payload {
		body[k] = v
	}
	s.hub.Broadcast(roomID, Message{Type: TypeRoomUpdated, Payload: body})
}

// ForceLeave выводит все живые соединения пользователя из комнаты.
func (s *Server) ForceLeave(userID, roomID, reason string) {
	for _, connID := range s.tracker.ConnsOf(userID) {
		if !s.tracker.InRoom(connID, roomID) {
			continue
		}
		s.hub.Leave(connID, roomID)
		s.tracker.RecordLeave(connID, roomID)
		s.hub.Send(connID, Message{
			Type:    TypeForceLeaveRoom,
			Payload: ForceLeavePayload{RoomID: roomID, Reason: reason},
		})
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- connection ---

type wsConn struct {
	conn   *websocket.Conn
	id     string
	sendMu chan struct{}
	closed chan struct{}
	once   sync.Once
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return c.conn.Close()
}
