package protocol

import "errors"

var (
	ErrUnknownMessage  = errors.New("unknown message type")
	ErrMalformed       = errors.New("malformed message")
	ErrConnClosed      = errors.New("connection is closed")
	ErrMessageTooLarge = errors.New("message too large")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limit exceeded")
)
