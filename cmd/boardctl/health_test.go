package main

import (
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kanban/backend/internal/transport/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthURL(t *testing.T) {
	cases := map[string]string{
		"ws://localhost:5000/ws/board":     "http://localhost:5000/health",
		"wss://board.example.com/ws/board": "https://board.example.com/health",
		"http://127.0.0.1:5000":            "http://127.0.0.1:5000/health",
	}
	for in, want := range cases {
		got, err := healthURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := healthURL("ftp://localhost/ws/board")
	assert.Error(t, err)
}

func TestFetchHealth(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Clients: 3, Tasks: 7})
	})
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	health, err := fetchHealth("http://"+ln.Addr().String()+"/health", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, dto.HealthResponse{Status: "ok", Clients: 3, Tasks: 7}, health)

	_, err = fetchHealth("http://"+ln.Addr().String()+"/missing", 2*time.Second)
	assert.Error(t, err)
}
