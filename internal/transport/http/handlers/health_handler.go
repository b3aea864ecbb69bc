package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/transport/http/dto"
)

type HealthHandler struct {
	board ports.BoardService
	sync  ports.SyncService
}

func NewHealthHandler(board ports.BoardService, sync ports.SyncService) *HealthHandler {
	return &HealthHandler{board: board, sync: sync}
}

func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:  "ok",
		Clients: h.sync.ClientCount(),
		Tasks:   h.board.Len(),
	})
}
