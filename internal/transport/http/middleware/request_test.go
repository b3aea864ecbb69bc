package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kanban/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newApp(header string, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(RequestID(header))
	if log != nil {
		app.Use(AccessLog(log))
	}
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDKey).(string))
	})
	return app
}

func TestRequestID_ReusesSuppliedHeader(t *testing.T) {
	app := newApp("X-Request-ID", nil)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "req-123", string(body))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	app := newApp("X-Request-ID", nil)

	first, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	second, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	id := first.Header.Get("X-Request-ID")
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, second.Header.Get("X-Request-ID"))
}

func TestRequestID_NoHeaderConfigured(t *testing.T) {
	app := newApp("", nil)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "ignored")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Empty(t, resp.Header.Get("X-Request-ID"))
}

func TestAccessLog_RecordsRequest(t *testing.T) {
	log, logs := logger.NewObserved(zapcore.InfoLevel)
	app := newApp("X-Request-ID", log)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "req-7")
	_, err := app.Test(req)
	require.NoError(t, err)

	entries := logs.FilterMessage("http_access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/ping", fields["path"])
	assert.Equal(t, "/ping", fields["route"])
	assert.Equal(t, int64(fiber.StatusOK), fields["status"])
	assert.Equal(t, "req-7", fields["request_id"])
}
