package main

import (
	"reflect"

	"github.com/kanban/backend/internal/domain"
)

// The predicates below recognise the snapshot that reflects a command sent
// by this process. Commands on an unknown id still broadcast an unchanged
// board, so a missing task counts as settled for them.

func findTask(tasks []domain.Task, id string) (domain.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func countText(tasks []domain.Task, text string) int {
	n := 0
	for _, t := range tasks {
		if t.Text == text {
			n++
		}
	}
	return n
}

func created(text string, before int) func([]domain.Task) bool {
	return func(tasks []domain.Task) bool {
		return countText(tasks, text) > before
	}
}

func moved(id string, status domain.Status) func([]domain.Task) bool {
	return func(tasks []domain.Task) bool {
		t, ok := findTask(tasks, id)
		return !ok || t.Status == status
	}
}

func updated(id string, patch domain.TaskPatch) func([]domain.Task) bool {
	return func(tasks []domain.Task) bool {
		t, ok := findTask(tasks, id)
		if !ok {
			return true
		}
		want := t.Clone()
		patch.ApplyTo(&want)
		return reflect.DeepEqual(want, t)
	}
}

func deleted(id string) func([]domain.Task) bool {
	return func(tasks []domain.Task) bool {
		_, ok := findTask(tasks, id)
		return !ok
	}
}

func attached(id, attachmentID string) func([]domain.Task) bool {
	return func(tasks []domain.Task) bool {
		t, ok := findTask(tasks, id)
		if !ok {
			return true
		}
		for _, a := range t.Attachments {
			if a.ID == attachmentID {
				return true
			}
		}
		return false
	}
}
