package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrReindexRunning signals that a full index rebuild is already in progress.
	ErrReindexRunning = errors.New("reindex already running")
)
