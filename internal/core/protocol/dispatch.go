package protocol

import (
	"fmt"

	"github.com/zeusync/arcourse/internal/core/session"
)

// Dispatch applies one client message to a session. Frames never fail;
// control messages return the session's sentinel errors.
func Dispatch(s *session.GameSession, msg ClientMessage) (session.Step, error) {
	switch msg.Type {
	case TypeFrame:
		return s.Frame(msg.Sample()), nil
	case TypePlace:
		return session.Step{}, s.Place(msg.Anchor())
	case TypeRecenter:
		return session.Step{}, s.Recenter(msg.Anchor())
	case TypeReset:
		s.Reset()
		return session.Step{}, nil
	case TypeTogglePlacement:
		s.TogglePlacement()
		return session.Step{}, nil
	default:
		return session.Step{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}
