package session

import (
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/scoring"
)

// HUD is pushed to the HUD sink on every processed frame.
type HUD struct {
	Score      int     `json:"score"`
	Combo      int     `json:"combo"`
	Misses     int     `json:"misses"`
	Metrics    string  `json:"metrics"`
	LateralX   float64 `json:"lateral_x"`
	Calibrated bool    `json:"calibrated"`
	Placed     bool    `json:"placed"`
	Placing    bool    `json:"placing"`
}

type HUDSink interface {
	UpdateHUD(hud HUD)
}

// Alerter is an optional HUDSink extension notified on every miss.
type Alerter interface {
	MissAlert(stats scoring.Snapshot)
}

// Renderer receives the active obstacles once per placed frame. The slice is
// reused between frames.
type Renderer interface {
	Render(views []obstacle.View)
}

type nopSink struct{}

func (nopSink) UpdateHUD(HUD)          {}
func (nopSink) Render([]obstacle.View) {}
