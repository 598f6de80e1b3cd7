package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anonchat/auth"
	"anonchat/domain"
	"anonchat/registry"
	"anonchat/repositories"
	"anonchat/runtime"
	"anonchat/runtime/workers"
	"anonchat/server"
	"anonchat/services"

	"github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so defers execute before the process exits
// and the wiring stays testable outside main.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	// 2. Admin authority
	accounts, err := config.Accounts()
	if err != nil {
		return err
	}
	authority, err := auth.NewAuthority(log, []byte(config.TokenKey), config.AdminSecret, accounts)
	if err != nil {
		return fmt.Errorf("admin authority: %w", err)
	}

	// 3. Registries, store, engine
	settings := domain.NewSettings(config.MessageTTL, config.RateLimit, config.MaxImageBytes)
	rooms := registry.NewRoomRegistry()
	rooms.Seed(domain.StandardRooms...)
	presence := registry.NewPresenceRegistry()
	store := repositories.NewMessageStore(log)
	sinks := runtime.NewRegistry()
	engine := runtime.NewEngine(log, rooms, presence, store, settings, sinks)

	chat := services.NewChatService(engine, authority)
	admin := services.NewAdminService(authority, engine, presence, rooms, store, settings)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewSweeperWorker(log, store, settings, sinks, config.SweepInterval),
		workers.NewTrendingWorker(log, engine, config.TrendingInterval),
	)
	go sup.Run(ctx)

	// 6. HTTP server (websocket + admin API)
	gin.SetMode(gin.ReleaseMode)
	// Frame limit leaves headroom over the image limit for the envelope.
	api := server.NewAPI(log, chat, admin, engine, settings,
		int64(config.MaxImageBytes)+64*1024, config.ConnectionBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: api.Router()}

	errChan := make(chan error, 1)
	go func() {
		color.Green.Printf("anonchat listening on %s\n", address)
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
