package main

import (
	"chat-uol/clock"
	"chat-uol/infrastructure/http/server"
	"chat-uol/internal"
	"chat-uol/moderation"
	"chat-uol/repositories"
	"chat-uol/runtime/workers"
	"chat-uol/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred Badger cleanup run.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf("loading .env: %w", err)
	}
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	participantRepository, err := repositories.NewParticipantRepository(db, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = participantRepository.Close() }()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = messageRepository.Close() }()

	// 4. Services
	var censor services.Censor
	if words := moderation.ParseWords(config.CensoredWords); len(words) > 0 {
		moderator, err := moderation.NewModerator(words, charReplacement, log)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = moderator
		log.Info("Moderation enabled", "words", len(words))
	}

	clk := clock.Real()
	messageService := services.NewMessageService(messageRepository, participantRepository, censor, clk, log)
	participantService := services.NewParticipantService(participantRepository, messageService, clk, log)

	if config.EnableDebugServer || log.Enabled(ctx, slog.LevelDebug) {
		internal.StartDebugServer(ctx, db, log, config.DebugPort, func() map[string]any {
			participants, err := participantService.List(ctx)
			if err != nil {
				return map[string]any{"error": err.Error()}
			}
			return map[string]any{"participants": len(participants)}
		})
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
	}

	// 5. Presence sweeper under supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(workers.NewPresenceSweeper(log, participantService, clk, config.SweepInterval, config.PresenceTimeout))
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 6. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	chatServer := server.NewChatServer(log, participantService, messageService).
		WithDefaultLimit(config.DefaultLimit)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           chatServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return code, runErr
}
