package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/kanban/backend/internal/config"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/infrastructure/logger"
	"github.com/kanban/backend/internal/transport/http/handlers"
)

type RouterConfig struct {
	Board  ports.BoardService
	Sync   ports.SyncService
	Logger *logger.Logger
	Config config.BoardConfig
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	boardHandler := handlers.NewBoardHandler(cfg.Sync, cfg.Logger)
	healthHandler := handlers.NewHealthHandler(cfg.Board, cfg.Sync)

	app.Get("/health", healthHandler.GetHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws/board", websocket.New(boardHandler.Handle, websocket.Config{
		Origins:         cfg.Config.AllowedOrigins,
		ReadBufferSize:  cfg.Config.ReadBufferSize,
		WriteBufferSize: cfg.Config.WriteBufferSize,
	}))
}
