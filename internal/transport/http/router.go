package http

import (
	"net/http"
	"time"

	httpmw "github.com/pollhub/poll-service/internal/transport/http/middleware"
	"github.com/pollhub/poll-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, auth *httpmw.Auth, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmw.RequestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// WS endpoint, auth по access_token в query
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Register)
			ar.Post("/login", h.Login)

			ar.Group(func(pr chi.Router) {
				pr.Use(auth.Handle)
				pr.Get("/me", h.Me)
			})
		})

		api.Route("/polls", func(pr chi.Router) {
			pr.Use(auth.Handle)

			pr.Get("/", h.ListPolls)
			pr.Post("/", h.CreatePoll)

			pr.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetPoll)
				rr.Get("/results", h.GetPollResults)
				rr.Post("/vote", h.Vote)
				rr.Put("/close", h.ClosePoll)
				rr.With(auth.RequireAdmin).Delete("/", h.AdminDeletePoll)
			})
		})

		api.Route("/chat/rooms", func(cr chi.Router) {
			cr.Use(auth.Handle)

			cr.Get("/", h.ListRooms)
			cr.Post("/", h.CreateRoom)

			cr.Route("/{id}", func(rr chi.Router) {
				rr.Post("/join", h.JoinRoom)
				rr.Get("/messages", h.GetChatHistory)
				rr.Put("/settings", h.UpdateSettings)
				rr.Post("/ban", h.BanUser)
				rr.Post("/unban", h.UnbanUser)
				rr.Post("/moderators", h.AddModerator)
				rr.Delete("/moderators/{userId}", h.RemoveModerator)
			})
		})

		api.Route("/admin", func(ad chi.Router) {
			ad.Use(auth.Handle)
			ad.Use(auth.RequireAdmin)

			ad.Get("/users", h.AdminListUsers)
			ad.Put("/users/{id}/status", h.AdminSetUserStatus)
			ad.Get("/polls", h.AdminListPolls)
			ad.Put("/polls/{id}/status", h.AdminSetPollStatus)
			ad.Delete("/polls/{id}", h.AdminDeletePoll)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
