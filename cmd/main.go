/*
Package main is the entry point of the chat relay server.

It loads configuration, initializes logging, builds the profanity filter and the chat hub,
serves HTTP and WebSocket traffic, and shuts down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/moderation"
	"chatrelay/internal/configs"
	"chatrelay/internal/handler"
	"chatrelay/internal/pkg/logx"
)

func main() {
	if err := configs.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %v\n", err)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("max_message_bytes", cfg.MaxMessageBytes).
		Int("send_buffer_size", cfg.SendBufferSize).
		Msg("Configuration loaded successfully")

	filter, err := buildFilter(cfg)
	if err != nil {
		logx.Fatal(err, "Failed to build profanity filter")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(chat.NewRegistry(), chat.HubOptions{
		Filter:          filter,
		MaxMessageBytes: cfg.MaxMessageBytes,
		SendBufferSize:  cfg.SendBufferSize,
	})
	go hub.Run()

	router := handler.Router(&handler.AppDeps{
		Hub:    hub,
		Config: cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// WebSocket connections are hijacked, so Shutdown above does not wait for them.
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// buildFilter combines the embedded word list with configured extras.
func buildFilter(cfg *configs.AppConfig) (*moderation.WordFilter, error) {
	extra := cfg.ProfanityWords

	if cfg.ProfanityListFile != "" {
		fromFile, err := moderation.LoadWordList(cfg.ProfanityListFile)
		if err != nil {
			return nil, err
		}
		extra = append(extra, fromFile...)
		logx.Info("Loaded profanity word list", "path", cfg.ProfanityListFile, "words", len(fromFile))
	}

	return moderation.NewDefaultFilter(extra...)
}
