package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kanban/backend/internal/core/ports"
	"github.com/kanban/backend/internal/domain"
)

var _ ports.BoardService = (*BoardService)(nil)

// BoardService holds the ordered task collection in memory.
type BoardService struct {
	tasks []domain.Task
	newID func() string
	mu    sync.RWMutex
}

func NewBoardService() *BoardService {
	return &BoardService{
		tasks: []domain.Task{},
		newID: newTaskID,
	}
}

// Task ids are UUIDv7 so they sort by creation time.
func newTaskID() string {
	return "task-" + uuid.Must(uuid.NewV7()).String()
}

// ==================== Mutations ====================

func (s *BoardService) Create(text string) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}

	s.tasks = append(s.tasks, domain.NewTask(id, text))
	return s.snapshot()
}

// Move stores status verbatim; workflow rules are not checked here.
func (s *BoardService) Move(id string, status domain.Status) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.tasks[i].Status = status
	}
	return s.snapshot()
}

func (s *BoardService) Update(id string, patch domain.TaskPatch) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		patch.ApplyTo(&s.tasks[i])
	}
	return s.snapshot()
}

func (s *BoardService) Delete(id string) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	return s.snapshot()
}

// ==================== Reads ====================

func (s *BoardService) Snapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *BoardService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *BoardService) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshot must be called with mu held.
func (s *BoardService) snapshot() []domain.Task {
	out := make([]domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}
