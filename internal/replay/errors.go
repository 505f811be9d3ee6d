package replay

import "errors"

var (
	ErrEmptyTrace   = errors.New("trace has no messages")
	ErrInvalidTrace = errors.New("invalid trace")
)
