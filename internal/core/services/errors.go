package services

import "errors"

// Sync errors
var (
	ErrSyncStopped    = errors.New("sync: event loop stopped")
	ErrUnknownClient  = errors.New("sync: unknown client")
	ErrUnknownCommand = errors.New("sync: unknown command")
)
