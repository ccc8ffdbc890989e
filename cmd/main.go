package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pollhub/poll-service/config"
	"github.com/pollhub/poll-service/internal/jobs"
	"github.com/pollhub/poll-service/internal/postgres"
	"github.com/pollhub/poll-service/internal/presence"
	"github.com/pollhub/poll-service/internal/security"
	"github.com/pollhub/poll-service/internal/service"
	httpx "github.com/pollhub/poll-service/internal/transport/http"
	httpmw "github.com/pollhub/poll-service/internal/transport/http/middleware"
	"github.com/pollhub/poll-service/internal/transport/ws"
	"github.com/pollhub/poll-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting poll-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	pollRepo := postgres.NewPollRepository(db.Pool)
	roomRepo := postgres.NewRoomRepository(db.Pool)
	chatRepo := postgres.NewChatRepository(db.Pool)

	// --- services ---
	signer := security.NewJWTSigner([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWTTTL(), 0, nil)
	authSvc := service.NewAuthService(userRepo, signer, security.BcryptConfig{}, nil)
	pollSvc := service.NewPollService(pollRepo, nil)
	roomSvc := service.NewRoomService(roomRepo, userRepo, nil)
	adminSvc := service.NewAdminService(userRepo, pollSvc)

	// --- presence & WS ---
	tracker := presence.NewTracker()
	chatSvc := service.NewChatService(roomRepo, chatRepo, tracker, nil)
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, tracker, authSvc, roomSvc, chatSvc)
	roomSvc.SetEvents(wsServer)

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, pollSvc, roomSvc, chatSvc, adminSvc)
	authMW := httpmw.NewAuth(authSvc)
	router := httpx.NewRouter(handler, authMW, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- background jobs ---
	scheduler := jobs.StartScheduler(pollSvc)

	// --- run ---
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	scheduler.Stop()
	_ = httpSrv.Shutdown(ctxShutdown)
	tracker.Reset()
	slog.Info("stopped")
}
