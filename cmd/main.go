package main

import (
	"chat-dm/auth"
	"chat-dm/observability"
	"chat-dm/repositories"
	"chat-dm/runtime"
	"chat-dm/runtime/workers"
	"chat-dm/services"
	"chat-dm/storage"
	"chat-dm/transport/rest"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle so that deferred
// cleanup always runs before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()

	// 3. Attachment storage
	attachments, err := storage.NewAttachmentStore(log, config.UploadsDir, config.MaxFileSizeMb)
	if err != nil {
		return fmt.Errorf("attachment storage failed: %w", err)
	}
	log.Info("Attachment storage ready", "root", attachments.Root(),
		"max_size", humanize.IBytes(uint64(attachments.MaxSize())))

	// 4. Supervision & delivery
	metrics := observability.NewMetrics()
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, config.RestartInterval),
		runtime.NewRegistry(),
		runtime.NewDispatcher(log, config.DeliveryBufferSize),
		metrics, config.SinkTimeout).
		WithChannelSampling(config.MetricInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestratorDone := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(orchestratorDone)
	}()

	// 5. HTTP server
	service := services.NewChatService(log, messageRepository, attachments, orchestrator, metrics)
	server := rest.NewServer(log, service, auth.NewVerifier(config.JwtKey), metrics, rest.Options{
		Production:     config.Production(),
		AllowedOrigins: config.Origins(),
		UploadsRoot:    attachments.Root(),
		MaxUploadBytes: attachments.MaxSize(),
		StreamBuffer:   config.ConnectionBufferSize,
	})
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "env", config.AppEnv, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		orchestrator.Stop()
		<-orchestratorDone
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	httpServer.RegisterOnShutdown(server.CloseStreams)
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	<-orchestratorDone
	log.Info("Program stopped cleanly")

	return nil
}
