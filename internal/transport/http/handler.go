package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pollhub/poll-service/internal/domain"
	"github.com/pollhub/poll-service/internal/service"
)

type Handler struct {
	authSvc  *service.AuthService
	pollSvc  *service.PollService
	roomSvc  *service.RoomService
	chatSvc  *service.ChatService
	adminSvc *service.AdminService
}

func NewHandler(auth *service.AuthService, poll *service.PollService, room *service.RoomService, chat *service.ChatService, admin *service.AdminService) *Handler {
	return &Handler{
		authSvc:  auth,
		pollSvc:  poll,
		roomSvc:  room,
		chatSvc:  chat,
		adminSvc: admin,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError — единая карта доменных ошибок в статусы:
// NotFound=404, Forbidden=403, Invalid=400, RateLimited=429.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: trimInvalid(err)})

	case errors.Is(err, domain.ErrBanned),
		errors.Is(err, domain.ErrMembersOnly),
		errors.Is(err, domain.ErrPrivateRoom),
		errors.Is(err, domain.ErrNotModerator),
		errors.Is(err, domain.ErrNotCreator),
		errors.Is(err, domain.ErrPrivilegedBan),
		errors.Is(err, domain.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Message: trimInvalid(err)})

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountDisabled):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: trimInvalid(err)})

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrPollNotActive),
		errors.Is(err, domain.ErrPollEnded),
		errors.Is(err, domain.ErrInvalidOption):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: trimInvalid(err)})

	default:
		var slow *domain.SlowModeError
		if errors.As(err, &slow) {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Message:     err.Error(),
				WaitSeconds: slow.WaitSeconds,
			})
			return
		}
		slog.Error(op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}

// trimInvalid убирает префикс "invalid input: " у ошибок валидации.
func trimInvalid(err error) string {
	msg := err.Error()
	const p = domainInvalidPrefix
	if len(msg) > len(p) && msg[:len(p)] == p {
		return msg[len(p):]
	}
	return msg
}

const domainInvalidPrefix = "invalid input: "
