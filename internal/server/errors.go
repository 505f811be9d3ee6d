package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxSessionsReached   = errors.New("maximum sessions reached")
	ErrListenerFailed       = errors.New("failed to create listener")
)
