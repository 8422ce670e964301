package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"chatwave/internal/config"
	"chatwave/internal/database"
	"chatwave/internal/handler"
	"chatwave/internal/redis"
	"chatwave/internal/repository"
	"chatwave/internal/service"
	"chatwave/internal/ws"
)

// Run wires the application together and serves until SIGINT/SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Disconnect(context.Background(), db); err != nil {
			log.Printf("[Server] mongo disconnect: %v", err)
		}
	}()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	otpRepo := repository.NewOTPRepository(redisClient)

	hub := ws.NewHub()

	emailSender := service.NewSMTPSender(cfg)
	authService := service.NewAuthService(
		userRepo, otpRepo, emailSender, mediaService,
		cfg.JWTSecret,
		time.Duration(cfg.TokenMaxAgeSec)*time.Second,
		cfg.OTPTTL,
	)
	followService := service.NewFollowService(userRepo, hub)
	messageService := service.NewMessageService(messageRepo, userRepo, mediaService, hub)

	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService),
		UserHandler:    handler.NewUserHandler(userRepo, followService),
		FollowHandler:  handler.NewFollowHandler(followService),
		MessageHandler: handler.NewMessageHandler(messageService),
		Hub:            hub,
		JWTSecret:      cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
