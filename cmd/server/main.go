package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stranger-chat/infrastructure/websocket"
	"stranger-chat/internal"
	"stranger-chat/moderation"
	"stranger-chat/observability"
	"stranger-chat/runtime"
	"stranger-chat/runtime/workers"
	"stranger-chat/services"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a fatal server error.
// Returning instead of exiting lets deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is fine, the environment is enough
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Moderation
	var moderator *moderation.Moderator
	if config.ModerateNames {
		data, err := moderation.NewEmbeddedLoader().LoadAll(moderation.DefaultCensoredDir)
		if err != nil {
			return exitConfig, fmt.Errorf("failed to load censored words: %w", err)
		}
		moderator, err = moderation.NewModerator(data.Words, charReplacement, logger)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to build moderator: %w", err)
		}
		logger.Info("Display name moderation enabled", "words", len(data.Words), "languages", data.Languages)
	}

	// 4. Matchmaking
	monitor := observability.NewMonitoringManager(logger)
	coordinator := runtime.NewCoordinator(logger, monitor)
	relay := runtime.NewRelay(logger, coordinator, monitor)
	chatService := services.NewChatService(logger, coordinator, relay, moderator)

	// 5. HTTP & WebSocket
	chatHandler := websocket.NewHandler(logger, chatService, websocket.Config{
		BufferSize:      config.ConnectionBufferSize,
		MaxMessageBytes: config.MaxMessageBytes,
		PingInterval:    config.PingInterval,
		PongWait:        config.PongWait,
		WriteWait:       config.WriteWait,
		AllowedOrigins:  config.Origins(),
	})
	router := internal.NewRouter(logger, chatHandler, coordinator, internal.RouterConfig{
		StaticDir:      config.StaticDir,
		AllowedOrigins: config.Origins(),
		Inspect:        logger.Enabled(ctx, slog.LevelDebug),
	})

	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	server := &http.Server{
		Handler: router,
		// Hijacked WebSocket connections are not closed by Shutdown, they follow ctx instead
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// 6. Supervision
	errChan := make(chan error, 1)
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewHTTPServerWorker(logger, server, listener, config.ShutdownTimeout, errChan),
		workers.NewStatsReporter(logger, coordinator, config.StatsInterval),
	)

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()
	logger.Info(fmt.Sprintf("Server is running on port %d", config.Port))

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err = <-errChan:
		logger.Error("HTTP server failed", "error", err)
		code = exitRuntime
	}

	// 8. Graceful Shutdown
	sup.Stop()
	<-supDone
	logger.Info("Server stopped cleanly")
	return code, err
}
