package handlers

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/domain"
	"github.com/kanban/backend/internal/infrastructure/logger"
)

type BoardHandler struct {
	sync   ports.SyncService
	logger *logger.Logger
}

func NewBoardHandler(sync ports.SyncService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{sync: sync, logger: logger}
}

// Handle serves one board client. The connection's frames are written by a
// dedicated goroutine; this goroutine only reads and submits commands.
func (h *BoardHandler) Handle(c *websocket.Conn) {
	ctx := context.Background()
	remote := c.RemoteAddr().String()

	sub, err := h.sync.Join(ctx)
	if err != nil {
		h.logger.Warnw("board_join_failed", "remote_addr", remote, "error", err)
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "board unavailable"))
		return
	}
	h.logger.Infow("board_ws_connected", "client_id", sub.ID(), "remote_addr", remote)

	// Write snapshots until the sync loop closes our queue, then close the
	// socket so the read loop below returns.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for frame := range sub.Frames() {
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Warnw("board_ws_write_failed", "client_id", sub.ID(), "error", err)
				break
			}
		}
		c.Close()
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.logger.Warnw("board_ws_read_failed", "client_id", sub.ID(), "error", err)
			}
			break
		}

		cmd, err := domain.DecodeCommand(data)
		if err != nil {
			h.logger.Warnw("board_frame_rejected", "client_id", sub.ID(), "bytes", len(data), "error", err)
			continue
		}

		if err := h.sync.Submit(ctx, sub, cmd); err != nil {
			h.logger.Warnw("board_command_submit_failed", "client_id", sub.ID(), "event", cmd.EventName(), "error", err)
			break
		}
	}

	h.sync.Leave(sub)
	<-writerDone
	h.logger.Infow("board_ws_disconnected", "client_id", sub.ID())
}
