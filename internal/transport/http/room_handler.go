package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	httpmw "github.com/pollhub/poll-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// GET /api/chat/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	rooms, err := h.roomSvc.ListVisible(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, "handler.ListRooms:", err)
		return
	}
	items := make([]RoomItem, 0, len(rooms))
	for i := range rooms {
		items = append(items, toRoomItem(&rooms[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

// POST /api/chat/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	room, err := h.roomSvc.Create(r.Context(), user.ID, req.Name, req.Description, req.Type)
	if err != nil {
		writeDomainError(w, "handler.CreateRoom:", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomItem(room))
}

// POST /api/chat/rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	room, isModerator, err := h.roomSvc.AttemptJoin(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "handler.JoinRoom:", err)
		return
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		Message: "Joined room successfully",
		Room: JoinedRoomItem{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			Type:        room.Type,
			Settings:    room.Settings,
			IsModerator: isModerator,
		},
	})
}

// POST /api/chat/rooms/{id}/moderators
func (h *Handler) AddModerator(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req ModeratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing userId"})
		return
	}

	room, err := h.roomSvc.AddModerator(r.Context(), user.ID, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeDomainError(w, "handler.AddModerator:", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// DELETE /api/chat/rooms/{id}/moderators/{userId}
func (h *Handler) RemoveModerator(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	room, err := h.roomSvc.RemoveModerator(r.Context(), user.ID, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		writeDomainError(w, "handler.RemoveModerator:", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// POST /api/chat/rooms/{id}/ban
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing userId"})
		return
	}

	if err := h.roomSvc.Ban(r.Context(), user.ID, chi.URLParam(r, "id"), req.UserID, req.Reason); err != nil {
		writeDomainError(w, "handler.BanUser:", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User banned successfully"})
}

// POST /api/chat/rooms/{id}/unban
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req UnbanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing userId"})
		return
	}

	if err := h.roomSvc.Unban(r.Context(), user.ID, chi.URLParam(r, "id"), req.UserID); err != nil {
		writeDomainError(w, "handler.UnbanUser:", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User unbanned successfully"})
}

// PUT /api/chat/rooms/{id}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	room, err := h.roomSvc.UpdateSettings(r.Context(), user.ID, chi.URLParam(r, "id"), req.Settings)
	if err != nil {
		writeDomainError(w, "handler.UpdateSettings:", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// GET /api/chat/rooms/{id}/messages?after=&limit=
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")
	after := r.URL.Query().Get("after")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, next, err := h.chatSvc.History(r.Context(), user.ID, roomID, after, limit)
	if err != nil {
		writeDomainError(w, "handler.GetChatHistory:", err)
		return
	}
	resp := ChatHistoryResponse{Items: make([]ChatMessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, ChatMessageItem{
			ID:        m.ID,
			RoomID:    m.RoomID,
			UserID:    m.UserID,
			Username:  m.Username,
			Text:      m.Text,
			Kind:      m.Kind,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
