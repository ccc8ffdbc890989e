package http

import (
	"encoding/json"
	"net/http"

	httpmw "github.com/pollhub/poll-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// GET /api/polls
func (h *Handler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.pollSvc.ListActive(r.Context())
	if err != nil {
		writeDomainError(w, "handler.ListPolls:", err)
		return
	}
	items := make([]PollItem, 0, len(polls))
	for i := range polls {
		items = append(items, toPollItem(&polls[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

// POST /api/polls
func (h *Handler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}
	if req.Title == "" || len(req.Options) < 2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "please provide a title and at least 2 options"})
		return
	}

	poll, err := h.pollSvc.Create(r.Context(), user.ID, req.Title, req.Description, req.Options, req.EndDate)
	if err != nil {
		writeDomainError(w, "handler.CreatePoll:", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPollItem(poll))
}

// GET /api/polls/{id}
func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.pollSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "handler.GetPoll:", err)
		return
	}
	writeJSON(w, http.StatusOK, toPollItem(poll))
}

// GET /api/polls/{id}/results
func (h *Handler) GetPollResults(w http.ResponseWriter, r *http.Request) {
	poll, err := h.pollSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "handler.GetPollResults:", err)
		return
	}
	writeJSON(w, http.StatusOK, poll.Results())
}

// POST /api/polls/{id}/vote
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid json"})
		return
	}

	poll, err := h.pollSvc.Vote(r.Context(), chi.URLParam(r, "id"), user.ID, req.OptionID)
	if err != nil {
		writeDomainError(w, "handler.Vote:", err)
		return
	}
	writeJSON(w, http.StatusOK, toPollItem(poll))
}

// PUT /api/polls/{id}/close
func (h *Handler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	user := httpmw.UserFromCtx(r.Context())

	poll, err := h.pollSvc.Close(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeDomainError(w, "handler.ClosePoll:", err)
		return
	}
	writeJSON(w, http.StatusOK, toPollItem(poll))
}
