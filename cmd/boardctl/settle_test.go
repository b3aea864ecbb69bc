package main

import (
	"testing"

	"github.com/kanban/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func board(tasks ...domain.Task) []domain.Task { return tasks }

func TestCreated_SkipsOtherClientsBroadcast(t *testing.T) {
	mine := domain.NewTask("task-2", "write docs")
	settled := created("write docs", 0)

	// Another client's create landed first.
	assert.False(t, settled(board(domain.NewTask("task-1", "fix bug"))))
	assert.True(t, settled(board(domain.NewTask("task-1", "fix bug"), mine)))
}

func TestCreated_CountsDuplicateText(t *testing.T) {
	existing := domain.NewTask("task-1", "same")
	settled := created("same", countText(board(existing), "same"))

	assert.False(t, settled(board(existing)))
	assert.True(t, settled(board(existing, domain.NewTask("task-2", "same"))))
}

func TestMoved(t *testing.T) {
	task := domain.NewTask("task-1", "a")
	settled := moved("task-1", domain.StatusInProgress)

	assert.False(t, settled(board(task)))
	task.Status = domain.StatusInProgress
	assert.True(t, settled(board(task)))
	assert.True(t, settled(board()), "unknown id settles on the unchanged broadcast")
}

func TestUpdated(t *testing.T) {
	task := domain.NewTask("task-1", "a")
	priority := domain.PriorityHigh
	settled := updated("task-1", domain.TaskPatch{Priority: &priority})

	assert.False(t, settled(board(task)))
	task.Priority = domain.PriorityHigh
	assert.True(t, settled(board(task)))
}

func TestDeleted(t *testing.T) {
	settled := deleted("task-1")

	assert.False(t, settled(board(domain.NewTask("task-1", "a"))))
	assert.True(t, settled(board(domain.NewTask("task-2", "b"))))
}

func TestAttached(t *testing.T) {
	task := domain.NewTask("task-1", "a")
	settled := attached("task-1", "att-9")

	assert.False(t, settled(board(task)))
	task.Attachments = []domain.Attachment{{ID: "att-9", Name: "a.png"}}
	assert.True(t, settled(board(task)))
}
