package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/session"
)

type MessageType string

// Client to server.
const (
	TypeFrame           MessageType = "frame"
	TypePlace           MessageType = "place"
	TypeRecenter        MessageType = "recenter"
	TypeReset           MessageType = "reset"
	TypeTogglePlacement MessageType = "toggle_placement"
)

// Server to client.
const (
	TypeHello MessageType = "hello"
	TypeState MessageType = "state"
	TypeError MessageType = "error"
)

// ClientMessage is one input from a player's device. Frames carry the head
// position; a frame without one means tracking was lost. Place and recenter
// carry the viewer position and facing.
type ClientMessage struct {
	Type     MessageType    `json:"type"`
	Time     float64        `json:"time,omitempty"`
	Head     *geometry.Vec3 `json:"head,omitempty"`
	Position geometry.Vec3  `json:"position"`
	Forward  geometry.Vec3  `json:"forward"`
}

func (m ClientMessage) Sample() session.Sample {
	s := session.Sample{Time: m.Time}
	if m.Head != nil {
		s.Head = *m.Head
		s.HasPose = true
	}
	return s
}

func (m ClientMessage) Anchor() session.Anchor {
	return session.Anchor{Position: m.Position, Forward: m.Forward}
}

// EventMessage is a bus event as sent to the client.
type EventMessage struct {
	Type bus.EventType `json:"type"`
	Time float64       `json:"time"`
	Data any           `json:"data,omitempty"`
}

type ServerMessage struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	State     string          `json:"state,omitempty"`
	HUD       *session.HUD    `json:"hud,omitempty"`
	Obstacles []obstacle.View `json:"obstacles,omitempty"`
	Events    []EventMessage  `json:"events,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// JSONCodec reads client messages and writes server messages.
type JSONCodec struct{}

func (JSONCodec) Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return msg, nil
}

// EncodeClient and DecodeServer are the client side of the codec.
func (JSONCodec) EncodeClient(msg ClientMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) DecodeServer(data []byte) (ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return ServerMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return msg, nil
}
