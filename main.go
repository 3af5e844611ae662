package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/taskhub-app/taskhub-be/internal/api"
	"github.com/taskhub-app/taskhub-be/internal/auth"
	"github.com/taskhub-app/taskhub-be/internal/config"
	"github.com/taskhub-app/taskhub-be/internal/database"
	"github.com/taskhub-app/taskhub-be/internal/logger"
	"github.com/taskhub-app/taskhub-be/internal/monitoring"
	"github.com/taskhub-app/taskhub-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Env)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up auth primitives
	tokenService, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up token service")
	}
	hasher := auth.NewPasswordHasher()

	// Set up services
	sessionService := services.NewSessionService(db, cfg.MaxSessionsPerUser)
	userService := services.NewUserService(db, hasher, tokenService, sessionService)

	// Set up and run the background session pruner
	pruner, err := monitoring.NewSessionPruner(sessionService, cfg.SessionPruneSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid session prune schedule")
	}
	go pruner.Run()

	// Set up router
	router := api.NewRouter(tokenService, userService, sessionService, cfg.AvatarMaxBytes)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
