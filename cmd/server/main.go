package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kanban/backend/internal/config"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/core/services"
	"github.com/kanban/backend/internal/infrastructure/logger"
	"github.com/kanban/backend/internal/infrastructure/relay"
	transporthttp "github.com/kanban/backend/internal/transport/http"
	"github.com/kanban/backend/internal/transport/http/dto"
	"github.com/kanban/backend/internal/transport/http/middleware"
)

func main() {
	configPath := "config/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "../config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	board := services.NewBoardService()

	var publisher ports.SnapshotPublisher
	var redisRelay *relay.RedisPublisher
	if cfg.Relay.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisRelay, err = relay.Connect(ctx, cfg.Relay, log.Named("relay"))
		cancel()
		if err != nil {
			log.Fatalf("failed to connect snapshot relay: %v", err)
		}
		publisher = redisRelay
		log.Infof("snapshot relay publishing to %s on %s", cfg.Relay.Channel, cfg.Relay.Addr)
	}

	syncService := services.NewSyncService(services.SyncServiceConfig{
		Board:          board,
		Publisher:      publisher,
		Logger:         log.Named("sync"),
		ClientBuffer:   cfg.Board.ClientBuffer,
		InboundBuffer:  cfg.Board.InboundBuffer,
		RelayBuffer:    cfg.Relay.QueueSize,
		PublishTimeout: cfg.Relay.PublishTimeout,
	})
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		syncService.Run(loopCtx)
		close(loopDone)
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowHeaders := "Origin, Content-Type, Accept"
	if cfg.Features.RequestIDHeader != "" {
		allowHeaders += ", " + cfg.Features.RequestIDHeader
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Board.AllowedOrigins, ","),
		AllowHeaders: allowHeaders,
		AllowMethods: "GET, HEAD",
	}))

	app.Use(middleware.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(middleware.AccessLog(log))
	}

	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Board:  board,
		Sync:   syncService,
		Logger: log.Named("ws"),
		Config: cfg.Board,
	})

	addr := cfg.Server.Address()
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Fatalf("server failed to start: %v", err)
	}

	go func() {
		if err := app.Listener(ln); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Infof("board server listening on %s", addr)

	gracefulShutdown(app, log, func() {
		stopLoop()
		<-loopDone
		if redisRelay != nil {
			if err := redisRelay.Close(); err != nil {
				log.Errorf("failed to close snapshot relay: %v", err)
			}
		}
	})
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code < fiber.StatusInternalServerError {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", c.Locals(middleware.RequestIDKey),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", c.Locals(middleware.RequestIDKey),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

// gracefulShutdown blocks until SIGINT or SIGTERM. Clients are disconnected
// by stopping the event loop before the listener drains.
func gracefulShutdown(app *fiber.App, log *logger.Logger, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleanup()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	log.Info("server exited gracefully")
}
