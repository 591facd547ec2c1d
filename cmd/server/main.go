package main

import (
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
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mekaushikranjan/ConnectLocal-sub002/auth"
	"github.com/mekaushikranjan/ConnectLocal-sub002/broker"
	"github.com/mekaushikranjan/ConnectLocal-sub002/fanout"
	"github.com/mekaushikranjan/ConnectLocal-sub002/gateway"
	"github.com/mekaushikranjan/ConnectLocal-sub002/internal"
	"github.com/mekaushikranjan/ConnectLocal-sub002/notification"
	"github.com/mekaushikranjan/ConnectLocal-sub002/observability"
	"github.com/mekaushikranjan/ConnectLocal-sub002/presence"
	"github.com/mekaushikranjan/ConnectLocal-sub002/ratelimit"
	"github.com/mekaushikranjan/ConnectLocal-sub002/repositories"
	"github.com/mekaushikranjan/ConnectLocal-sub002/rooms"
	"github.com/mekaushikranjan/ConnectLocal-sub002/runtime/workers"
	"github.com/mekaushikranjan/ConnectLocal-sub002/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the gateway and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := internal.LoggerFromString(config.LogLevel)

	nodeID := config.NodeID
	if nodeID == "" {
		hostname, _ := os.Hostname()
		nodeID = fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	}

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Broker (Redis)
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return exitRuntime, fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
	}
	defer func() {
		logger.Info("Closing Redis client...")
		_ = client.Close()
	}()
	redisBroker := broker.NewRedisBroker(client, logger)

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	subscription := redisBroker.Subscribe(ctx)
	defer func() { _ = subscription.Close() }()

	// 5. Core components
	store := repositories.NewStore(db, logger)
	roomManager := rooms.NewManager(logger, store, subscription)
	directory := presence.NewDirectory(redisBroker, logger, nodeID, config.PresenceTTL)
	engine := fanout.NewEngine(redisBroker, logger)
	dispatcher := notification.NewDispatcher(store, directory, engine, logger, config.DedupWindow)
	chatService := services.NewChatService(store, roomManager, engine, dispatcher, logger)
	limiter := ratelimit.NewLimiter(redisBroker, logger)
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)

	monitor := observability.NewMonitor(logger, 30*time.Second, directory.LocalCount)

	// 6. Supervision: the fan-out receiver, the presence heartbeat and the
	// stats monitor restart on failure without taking the process down.
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		fanout.NewReceiver(subscription, roomManager, logger),
		workers.NewPresenceHeartbeat(directory, logger),
		monitor,
	)
	go func() {
		logger.Info("Starting supervisor...", "node_id", nodeID)
		sup.Run(ctx)
	}()

	// 7. HTTP & Websocket gateway
	gw := gateway.NewGateway(logger, tokens, store, roomManager, directory, chatService, engine, limiter,
		gateway.Options{
			ConnectionBufferSize: config.ConnectionBufferSize,
			HandshakeTimeout:     config.HandshakeTimeout,
			SendWindow:           config.SendWindow,
			SendLimit:            config.SendLimit,
			Stats:                monitor,
		})

	mux := http.NewServeMux()
	gw.Routes(mux, store, gateway.RateLimitRule{
		Action: "api",
		Window: config.HTTPWindow,
		Limit:  config.HTTPLimit,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe issues asynchronously.
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Active websockets get the shutdown window to drain before the process exits.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Gateway shutdown incomplete", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
