package http

import (
	"encoding/json"
	"net/http"

	httpmw "github.com/pollhub/poll-service/internal/transport/http/middleware"
)

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "please provide all required fields"})
		return
	}

	res, err := h.authSvc.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeDomainError(w, "handler.Register:", err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Token: res.AccessToken,
		User:  toUserItem(res.User),
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "please provide email and password"})
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, "handler.Login:", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token: res.AccessToken,
		User:  toUserItem(res.User),
	})
}

// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())
	writeJSON(w, http.StatusOK, toUserItem(user))
}
