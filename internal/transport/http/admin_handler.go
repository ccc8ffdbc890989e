package http

import (
	"encoding/json"
	"net/http"

	"github.com/pollhub/poll-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

// GET /api/admin/users
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminSvc.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, "handler.AdminListUsers:", err)
		return
	}
	items := make([]UserItem, 0, len(users))
	for i := range users {
		items = append(items, toUserItem(&users[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

// PUT /api/admin/users/{id}/status
func (h *Handler) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req UserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	u, err := h.adminSvc.SetUserStatus(r.Context(), chi.URLParam(r, "id"), req.IsActive)
	if err != nil {
		writeDomainError(w, "handler.AdminSetUserStatus:", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserItem(u))
}

// GET /api/admin/polls?status=
func (h *Handler) AdminListPolls(w http.ResponseWriter, r *http.Request) {
	status := domain.PollStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.PollActive
	}

	polls, err := h.adminSvc.ListPolls(r.Context(), status)
	if err != nil {
		writeDomainError(w, "handler.AdminListPolls:", err)
		return
	}
	items := make([]PollItem, 0, len(polls))
	for i := range polls {
		items = append(items, toPollItem(&polls[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

// PUT /api/admin/polls/{id}/status
func (h *Handler) AdminSetPollStatus(w http.ResponseWriter, r *http.Request) {
	var req PollStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	if err := h.adminSvc.SetPollStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		writeDomainError(w, "handler.AdminSetPollStatus:", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Poll status updated"})
}

// DELETE /api/admin/polls/{id}
func (h *Handler) AdminDeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.adminSvc.DeletePoll(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "handler.AdminDeletePoll:", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Poll deleted"})
}
