/*
Package main is the entry point for the RelayChat server.

It is responsible for loading configuration, initializing the global logging
system, connecting the database, redis, and blob storage backends, wiring the
realtime delivery core, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
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

	"relaychat/internal/app/chat"
	"relaychat/internal/app/db"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/app/verify"
	"relaychat/internal/configs"
	"relaychat/internal/handler"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the database and run pending migrations
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect database")
	}
	defer pool.Close()

	dataStore := store.New(pool)

	// Connect redis for verification codes
	verifier, err := verify.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logx.Fatal(err, "Failed to connect redis")
	}
	defer verifier.Close()

	// Connect blob storage
	blobStorage, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize blob storage")
	}

	// Wire the realtime delivery core
	registry := chat.NewRegistry()
	broadcaster := chat.NewBroadcaster(registry)
	sessions := chat.NewSessionHandler(registry, dataStore, jwt.NewVerifier(cfg.JWTSecret), broadcaster)

	deps := &handler.AppDeps{
		Config:      cfg,
		Store:       dataStore,
		Storage:     blobStorage,
		Verify:      verifier,
		Registry:    registry,
		Broadcaster: broadcaster,
		Sessions:    sessions,
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("RelayChat Server starting on http://%s", cfg.ListenAddr()))
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
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
