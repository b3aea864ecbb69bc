// Package client connects to a task board over its websocket and mirrors the
// board's latest snapshot locally.
//
// The workflow guard (a task in todo cannot jump straight to done) and the
// attachment size limit live here, on the client side. The server accepts
// whatever it is sent; MoveUnchecked exists for callers that want that.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/kanban/backend/internal/domain"
)

// MaxAttachmentSize is the advisory per-file limit enforced before sending.
const MaxAttachmentSize = 2 * 1024 * 1024

const snapshotBuffer = 16

type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closing atomic.Bool

	mu    sync.RWMutex
	tasks []domain.Task
	err   error

	snapshots chan []domain.Task
	done      chan struct{}
}

// Dial opens a board connection. url is the websocket endpoint, for example
// ws://localhost:5000/ws/board.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:      conn,
		tasks:     []domain.Task{},
		snapshots: make(chan []domain.Task, snapshotBuffer),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.snapshots)
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		tasks, err := domain.DecodeSnapshot(data)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.tasks = tasks
		c.mu.Unlock()

		c.offer(tasks)
	}
}

// offer never blocks the read loop; when the consumer lags, the oldest
// pending snapshot is discarded.
func (c *Client) offer(tasks []domain.Task) {
	for {
		select {
		case c.snapshots <- tasks:
			return
		default:
		}
		select {
		case <-c.snapshots:
		default:
		}
	}
}

// Snapshots yields every snapshot received, starting with the join snapshot.
// The channel is closed when the connection ends.
func (c *Client) Snapshots() <-chan []domain.Task {
	return c.snapshots
}

// Done is closed when the connection ends; Err then reports why.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Tasks returns a copy of the most recently observed snapshot.
func (c *Client) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Task looks up a task in the most recently observed snapshot.
func (c *Client) Task(id string) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Task{}, false
}

// Next waits for the next snapshot.
func (c *Client) Next(ctx context.Context) ([]domain.Task, error) {
	select {
	case tasks, ok := <-c.snapshots:
		if !ok {
			return nil, c.closedErr()
		}
		return tasks, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) Create(ctx context.Context, text string) error {
	return c.send(ctx, domain.CreateTask{Text: text})
}

// Move changes a task's status, refusing todo -> done for tasks the client
// has seen in todo.
func (c *Client) Move(ctx context.Context, id string, status domain.Status) error {
	if t, ok := c.Task(id); ok && !domain.CanTransition(t.Status, status) {
		return ErrTransitionBlocked
	}
	return c.send(ctx, domain.MoveTask{ID: id, Status: status})
}

// MoveUnchecked sends the move without consulting the workflow guard.
func (c *Client) MoveUnchecked(ctx context.Context, id string, status domain.Status) error {
	return c.send(ctx, domain.MoveTask{ID: id, Status: status})
}

func (c *Client) Update(ctx context.Context, id string, patch domain.TaskPatch) error {
	return c.send(ctx, domain.UpdateTask{ID: id, Patch: patch})
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.send(ctx, domain.DeleteTask{ID: id})
}

// Resync asks the server to resend the current snapshot to this client.
func (c *Client) Resync(ctx context.Context) error {
	return c.send(ctx, domain.RequestSync{})
}

// Attach appends an attachment to a task's last observed attachment list.
// size is the file size in bytes; files over MaxAttachmentSize are refused.
// An empty att.ID is filled in.
func (c *Client) Attach(ctx context.Context, taskID string, att domain.Attachment, size int64) error {
	if size > MaxAttachmentSize {
		return ErrAttachmentTooLarge
	}

	t, ok := c.Task(taskID)
	if !ok {
		return ErrUnknownTask
	}

	if att.ID == "" {
		att.ID = "att-" + uuid.Must(uuid.NewV7()).String()
	}
	attachments := append(t.Attachments, att)

	return c.send(ctx, domain.UpdateTask{ID: taskID, Patch: domain.TaskPatch{Attachments: &attachments}})
}

func (c *Client) send(ctx context.Context, cmd domain.Command) error {
	select {
	case <-c.done:
		return c.closedErr()
	default:
	}

	frame, err := domain.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// A zero deadline clears any previous one.
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) closedErr() error {
	if c.closing.Load() {
		return ErrClosed
	}
	if err := c.Err(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return err
	}
	return ErrClosed
}

// Close sends a close frame and waits for the read loop to finish.
func (c *Client) Close() error {
	c.closing.Store(true)

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	return c.conn.Close()
}
