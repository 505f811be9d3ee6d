package session

import "errors"

var (
	ErrNotPlacing = errors.New("session: placement mode is off")
	ErrNotPlaced  = errors.New("session: track is not placed")
)
