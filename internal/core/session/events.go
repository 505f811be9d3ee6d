package session

import (
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/pool"
	"github.com/zeusync/arcourse/internal/core/scoring"
)

// Payloads carried by the session's bus events.
type (
	PlacedEvent struct {
		Origin geometry.Vec3 `json:"origin"`
		Yaw    float64       `json:"yaw"`
	}

	CalibratedEvent struct {
		Baseline float64 `json:"baseline"`
	}

	GestureEvent struct {
		Height float64 `json:"height"`
		Vy     float64 `json:"vy"`
	}

	SpawnEvent struct {
		Kind  obstacle.Kind `json:"kind"`
		Slot  pool.Slot     `json:"slot"`
		Start geometry.Vec3 `json:"start"`
		Speed float64       `json:"speed"`
	}

	ScoreEvent struct {
		Kind   obstacle.Kind    `json:"kind"`
		Points int              `json:"points"`
		Stats  scoring.Snapshot `json:"stats"`
	}

	MissEvent struct {
		Kind  obstacle.Kind    `json:"kind"`
		Stats scoring.Snapshot `json:"stats"`
	}
)
