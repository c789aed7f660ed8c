/*
Package main is the entry point of the vcturbo presence and relay server.

It loads configuration, initializes logging, opens the repository (PostgreSQL, or
memory in development), wires presence, friend graph, relay, matchmaking and the
session handler behind the HTTP/WebSocket router, and shuts down gracefully on
SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vcturbo/internal/app/db"
	"vcturbo/internal/app/friend"
	"vcturbo/internal/app/gateway"
	"vcturbo/internal/app/match"
	"vcturbo/internal/app/presence"
	"vcturbo/internal/app/relay"
	"vcturbo/internal/app/session"
	"vcturbo/internal/app/storage"
	"vcturbo/internal/app/store"
	"vcturbo/internal/configs"
	"vcturbo/internal/handler"
	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo store.Repository
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize database")
		}
		defer pool.Close()

		repo = store.NewPostgres(pool)
		logx.Info("PostgreSQL repository ready")
	} else {
		repo = store.NewMemory()
		logx.Warn("DATABASE_URL not set, using the in-memory repository")
	}

	var storageService storage.StorageService
	if cfg.StorageEnabled() {
		storageService, err = storage.NewStorageService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
	}

	registry := presence.NewRegistry()
	gw := gateway.NewManager()

	sessions := session.NewService(session.Deps{
		Repo:        repo,
		Registry:    registry,
		Graph:       friend.NewGraph(repo),
		Queue:       match.NewQueue(),
		Router:      relay.NewRouter(registry, gw),
		SearchLimit: cfg.SearchLimit,
	})

	powManager := pow.NewPoWManager(cfg.PowDifficulty)
	defer powManager.Stop()

	deps := &handler.AppDeps{
		Config:         cfg,
		Gateway:        gw,
		Session:        sessions,
		Registry:       registry,
		StorageService: storageService,
		PoW:            powManager,
	}
	router := handler.Router(deps)
	defer deps.ConnectLimiter.Stop()
	defer deps.PresignLimiter.Stop()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("vcturbo server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	gw.Shutdown()

	logx.Info("Server gracefully stopped.")
}
