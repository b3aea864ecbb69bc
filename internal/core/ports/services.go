package ports

import (
	"context"

	"github.com/kanban/backend/internal/domain"
)

// BoardService owns the task collection. Every operation returns the whole
// collection as it stands afterwards.
type BoardService interface {
	Create(text string) []domain.Task
	Move(id string, status domain.Status) []domain.Task
	Update(id string, patch domain.TaskPatch) []domain.Task
	Delete(id string) []domain.Task
	Snapshot() []domain.Task
	Len() int
}

// Subscriber is one connected client as the transport sees it. Frames is
// closed when the client leaves or is dropped.
type Subscriber interface {
	ID() string
	Frames() <-chan []byte
}

// SyncService fans board snapshots out to connected clients and applies
// their commands one at a time.
type SyncService interface {
	Run(ctx context.Context)
	Join(ctx context.Context) (Subscriber, error)
	Leave(sub Subscriber)
	Submit(ctx context.Context, sub Subscriber, cmd domain.Command) error
	ClientCount() int
}

// SnapshotPublisher receives every encoded snapshot frame after it is broadcast.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, frame []byte) error
}
