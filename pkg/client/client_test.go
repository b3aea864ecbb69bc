package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kanban/backend/internal/config"
	"github.com/kanban/backend/internal/core/services"
	"github.com/kanban/backend/internal/domain"
	"github.com/kanban/backend/internal/infrastructure/logger"
	transporthttp "github.com/kanban/backend/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBoard(t *testing.T) (string, *services.BoardService) {
	t.Helper()

	board := services.NewBoardService()
	syncSvc := services.NewSyncService(services.SyncServiceConfig{Board: board, Logger: logger.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		syncSvc.Run(ctx)
		close(loopDone)
	}()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Board:  board,
		Sync:   syncSvc,
		Logger: logger.NewNop(),
		Config: config.BoardConfig{AllowedOrigins: []string{"*"}},
	})

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)

	t.Cleanup(func() {
		cancel()
		<-loopDone
		_ = app.Shutdown()
	})
	return "ws://" + ln.Addr().String() + "/ws/board", board
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func next(t *testing.T, c *Client) []domain.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tasks, err := c.Next(ctx)
	require.NoError(t, err)
	return tasks
}

func createOne(t *testing.T, c *Client, text string) domain.Task {
	t.Helper()
	require.NoError(t, c.Create(context.Background(), text))
	tasks := next(t, c)
	require.NotEmpty(t, tasks)
	return tasks[len(tasks)-1]
}

func TestClient_ReceivesJoinSnapshotAndBroadcasts(t *testing.T) {
	url, board := startBoard(t)
	board.Create("existing")

	a := dial(t, url)
	b := dial(t, url)
	require.Len(t, next(t, a), 1)
	require.Len(t, next(t, b), 1)

	require.NoError(t, a.Create(context.Background(), "new"))
	tasks := next(t, b)
	require.Len(t, tasks, 2)
	assert.Equal(t, "new", tasks[1].Text)
	assert.Equal(t, tasks, next(t, a))
	assert.Equal(t, tasks, b.Tasks())
}

func TestClient_MoveBlocksTodoToDone(t *testing.T) {
	url, board := startBoard(t)
	c := dial(t, url)
	next(t, c)
	task := createOne(t, c, "a")

	err := c.Move(context.Background(), task.ID, domain.StatusDone)
	assert.ErrorIs(t, err, ErrTransitionBlocked)
	assert.Equal(t, domain.StatusTodo, board.Snapshot()[0].Status)

	require.NoError(t, c.Move(context.Background(), task.ID, domain.StatusInProgress))
	assert.Equal(t, domain.StatusInProgress, next(t, c)[0].Status)

	require.NoError(t, c.Move(context.Background(), task.ID, domain.StatusDone))
	assert.Equal(t, domain.StatusDone, next(t, c)[0].Status)
}

func TestClient_MoveUncheckedReachesServer(t *testing.T) {
	url, _ := startBoard(t)
	c := dial(t, url)
	next(t, c)
	task := createOne(t, c, "a")

	require.NoError(t, c.MoveUnchecked(context.Background(), task.ID, domain.StatusDone))
	assert.Equal(t, domain.StatusDone, next(t, c)[0].Status)
}

func TestClient_UpdateAndDelete(t *testing.T) {
	url, _ := startBoard(t)
	c := dial(t, url)
	next(t, c)
	task := createOne(t, c, "a")

	category := domain.CategoryBug
	require.NoError(t, c.Update(context.Background(), task.ID, domain.TaskPatch{Category: &category}))
	updated := next(t, c)[0]
	assert.Equal(t, domain.CategoryBug, updated.Category)
	assert.Equal(t, "a", updated.Text)

	require.NoError(t, c.Delete(context.Background(), task.ID))
	assert.Empty(t, next(t, c))
}

func TestClient_AttachAppendsAndChecksSize(t *testing.T) {
	url, _ := startBoard(t)
	c := dial(t, url)
	next(t, c)
	task := createOne(t, c, "a")

	att := domain.Attachment{URL: "file:///tmp/a.png", Name: "a.png", Type: "image/png"}
	err := c.Attach(context.Background(), task.ID, att, MaxAttachmentSize+1)
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)

	err = c.Attach(context.Background(), "missing", att, 10)
	assert.ErrorIs(t, err, ErrUnknownTask)

	require.NoError(t, c.Attach(context.Background(), task.ID, att, 10))
	first := next(t, c)[0]
	require.Len(t, first.Attachments, 1)
	assert.NotEmpty(t, first.Attachments[0].ID)
	assert.Equal(t, "a.png", first.Attachments[0].Name)

	second := domain.Attachment{ID: "att-2", URL: "file:///tmp/b.txt", Name: "b.txt", Type: "text/plain"}
	require.NoError(t, c.Attach(context.Background(), task.ID, second, MaxAttachmentSize))
	got := next(t, c)[0]
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, second, got.Attachments[1])
}

func TestClient_Resync(t *testing.T) {
	url, board := startBoard(t)
	c := dial(t, url)
	next(t, c)

	// Mutations made directly on the store are not broadcast.
	board.Create("direct")
	require.NoError(t, c.Resync(context.Background()))

	tasks := next(t, c)
	require.Len(t, tasks, 1)
	assert.Equal(t, "direct", tasks[0].Text)
}

func TestClient_SendAfterCloseFails(t *testing.T) {
	url, _ := startBoard(t)
	c := dial(t, url)
	next(t, c)

	require.NoError(t, c.Close())
	<-c.Done()

	assert.ErrorIs(t, c.Create(context.Background(), "a"), ErrClosed)
	_, err := c.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
