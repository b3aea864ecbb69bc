package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/domain"
	"github.com/kanban/backend/internal/infrastructure/logger"
)

const (
	defaultClientBuffer   = 64
	defaultInboundBuffer  = 256
	defaultRelayBuffer    = 64
	defaultPublishTimeout = 2 * time.Second
)

type SyncServiceConfig struct {
	Board          ports.BoardService
	Publisher      ports.SnapshotPublisher // optional
	Logger         *logger.Logger
	ClientBuffer   int
	InboundBuffer  int
	RelayBuffer    int
	PublishTimeout time.Duration
}

// SyncService runs the board event loop. A single goroutine (Run) owns the
// client set and applies joins, leaves and commands strictly one at a time,
// so every client observes the same sequence of snapshots.
type SyncService struct {
	board          ports.BoardService
	publisher      ports.SnapshotPublisher
	logger         *logger.Logger
	clientBuffer   int
	publishTimeout time.Duration

	joins   chan *client
	leaves  chan *client
	inbound chan inboundCommand
	relay   chan []byte
	done    chan struct{}

	clients     map[*client]struct{}
	clientCount atomic.Int64
}

var _ ports.SyncService = (*SyncService)(nil)

type client struct {
	id     string
	frames chan []byte
}

func (c *client) ID() string { return c.id }
func (c *client) Frames() <-chan []byte { return c.frames }

type inboundCommand struct {
	from *client
	cmd  domain.Command
}

func NewSyncService(cfg SyncServiceConfig) *SyncService {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = defaultClientBuffer
	}
	if cfg.InboundBuffer <= 0 {
		cfg.InboundBuffer = defaultInboundBuffer
	}
	if cfg.RelayBuffer <= 0 {
		cfg.RelayBuffer = defaultRelayBuffer
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	var relay chan []byte
	if cfg.Publisher != nil {
		relay = make(chan []byte, cfg.RelayBuffer)
	}

	return &SyncService{
		board:          cfg.Board,
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
		clientBuffer:   cfg.ClientBuffer,
		publishTimeout: cfg.PublishTimeout,
		joins:          make(chan *client),
		leaves:         make(chan *client),
		inbound:        make(chan inboundCommand, cfg.InboundBuffer),
		relay:          relay,
		done:           make(chan struct{}),
		clients:        make(map[*client]struct{}),
	}
}

// Run processes events until ctx is cancelled, then closes every client's
// frame channel. It must be called exactly once.
func (s *SyncService) Run(ctx context.Context) {
	defer close(s.done)

	if s.relay != nil {
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			s.runRelay(ctx)
		}()
		defer func() { <-relayDone }()
	}

	for {
		select {
		case <-ctx.Done():
			for c := range s.clients {
				s.remove(c)
			}
			s.logger.Infow("board_sync_stopped")
			return
		case c := <-s.joins:
			s.clients[c] = struct{}{}
			s.clientCount.Add(1)
			s.logger.Infow("board_client_joined", "client_id", c.id, "clients", len(s.clients))
			s.sendSnapshot(c, s.board.Snapshot())
		case c := <-s.leaves:
			if _, ok := s.clients[c]; ok {
				s.remove(c)
				s.logger.Infow("board_client_left", "client_id", c.id, "clients", len(s.clients))
			}
		case in := <-s.inbound:
			s.apply(in)
		}
	}
}

// Join registers a new client. The client's first frame is the snapshot
// current at the moment the loop accepted the join.
func (s *SyncService) Join(ctx context.Context) (ports.Subscriber, error) {
	c := &client{
		id:     uuid.New().String(),
		frames: make(chan []byte, s.clientBuffer),
	}

	select {
	case s.joins <- c:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSyncStopped
	}
}

// Leave unregisters a client. Calling it for a client that was already
// dropped is a no-op.
func (s *SyncService) Leave(sub ports.Subscriber) {
	c, ok := sub.(*client)
	if !ok {
		return
	}

	select {
	case s.leaves <- c:
	case <-s.done:
	}
}

// Submit queues a command for the event loop.
func (s *SyncService) Submit(ctx context.Context, sub ports.Subscriber, cmd domain.Command) error {
	c, ok := sub.(*client)
	if !ok {
		return ErrUnknownClient
	}

	select {
	case <-s.done:
		return ErrSyncStopped
	default:
	}

	select {
	case s.inbound <- inboundCommand{from: c, cmd: cmd}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSyncStopped
	}
}

func (s *SyncService) ClientCount() int {
	return int(s.clientCount.Load())
}

func (s *SyncService) apply(in inboundCommand) {
	var tasks []domain.Task

	switch cmd := in.cmd.(type) {
	case domain.CreateTask:
		tasks = s.board.Create(cmd.Text)
	case domain.MoveTask:
		tasks = s.board.Move(cmd.ID, cmd.Status)
	case domain.UpdateTask:
		tasks = s.board.Update(cmd.ID, cmd.Patch)
	case domain.DeleteTask:
		tasks = s.board.Delete(cmd.ID)
	case domain.RequestSync:
		if _, ok := s.clients[in.from]; ok {
			s.sendSnapshot(in.from, s.board.Snapshot())
		}
		return
	default:
		s.logger.Warnw("board_command_dropped", "client_id", in.from.id, "error", ErrUnknownCommand, "type", in.cmd)
		return
	}

	s.logger.Debugw("board_command_applied", "client_id", in.from.id, "event", in.cmd.EventName(), "tasks", len(tasks))

	frame, err := domain.EncodeSnapshot(tasks)
	if err != nil {
		s.logger.Errorw("board_snapshot_encode_failed", "error", err)
		return
	}

	for c := range s.clients {
		s.deliver(c, frame)
	}

	s.enqueueRelay(frame)
}

func (s *SyncService) sendSnapshot(c *client, tasks []domain.Task) {
	frame, err := domain.EncodeSnapshot(tasks)
	if err != nil {
		s.logger.Errorw("board_snapshot_encode_failed", "client_id", c.id, "error", err)
		return
	}
	s.deliver(c, frame)
}

// deliver never blocks the loop. A client whose queue is full is dropped;
// it re-syncs from the current snapshot when it reconnects.
func (s *SyncService) deliver(c *client, frame []byte) {
	select {
	case c.frames <- frame:
	default:
		s.logger.Warnw("board_client_dropped", "client_id", c.id, "reason", "send buffer full")
		s.remove(c)
	}
}

func (s *SyncService) remove(c *client) {
	delete(s.clients, c)
	close(c.frames)
	s.clientCount.Add(-1)
}

// enqueueRelay hands a broadcast frame to the relay goroutine without
// blocking. Frames are dropped while the queue is full.
func (s *SyncService) enqueueRelay(frame []byte) {
	if s.relay == nil {
		return
	}
	select {
	case s.relay <- frame:
	default:
		s.logger.Warnw("board_snapshot_relay_dropped", "reason", "relay queue full", "bytes", len(frame))
	}
}

func (s *SyncService) runRelay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.relay:
			s.publish(ctx, frame)
		}
	}
}

func (s *SyncService) publish(ctx context.Context, frame []byte) {
	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishSnapshot(pubCtx, frame); err != nil {
		s.logger.Errorw("board_snapshot_publish_failed", "error", err)
	}
}
