package terminal

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/scoring"
	"github.com/zeusync/arcourse/internal/core/session"
)

const (
	hudRows       = 2
	maxTrackCols  = 37
	alertFrames   = 30
	playerGlyph   = '@'
	floorGlyph    = '.'
	edgeGlyph     = '|'
	recycleMargin = obstacle.RecycleZ
)

var (
	styleFloor   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleEdge    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSolid   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleVisual  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHit     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCleared = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleAlert   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

var glyphs = [obstacle.KindCount]rune{
	obstacle.KindOverheadBar: '=',
	obstacle.KindGateLeft:    '#',
	obstacle.KindGateRight:   '#',
	obstacle.KindHurdle:      '_',
}

// Renderer draws a top-down view of the track: far end at the top, the
// player row near the bottom, HUD below. It implements session.Renderer,
// session.HUDSink and session.Alerter and must be driven from one goroutine.
type Renderer struct {
	screen tcell.Screen
	track  geometry.Track

	views      []obstacle.View
	alertTicks int
}

func New(screen tcell.Screen, track geometry.Track) *Renderer {
	return &Renderer{screen: screen, track: track}
}

func (r *Renderer) Render(views []obstacle.View) {
	r.views = append(r.views[:0], views...)
}

func (r *Renderer) MissAlert(scoring.Snapshot) {
	r.alertTicks = alertFrames
}

// UpdateHUD redraws the whole screen. It is the last callback of a frame.
func (r *Renderer) UpdateHUD(h session.HUD) {
	r.screen.Clear()
	if h.Placed {
		r.drawTrack()
		for _, v := range r.views {
			r.drawObstacle(v)
		}
		col, row := r.Project(h.LateralX, 0)
		r.screen.SetContent(col, row, playerGlyph, nil, stylePlayer)
	}
	r.drawHUD(h)
	r.screen.Show()
}

// Project maps a track-local (x, z) to a screen cell.
func (r *Renderer) Project(x, z float64) (col, row int) {
	w, h := r.screen.Size()
	cols := min(w, maxTrackCols)
	rows := max(h-hudRows, 1)
	left := (w - cols) / 2

	fx := (x + r.track.Width/2) / r.track.Width
	col = left + int(math.Round(geometry.Clamp(fx, 0, 1)*float64(cols-1)))

	zFar := r.track.SpawnZ(0.5)
	fz := (z - zFar) / (recycleMargin - zFar)
	row = int(math.Round(geometry.Clamp(fz, 0, 1) * float64(rows-1)))
	return col, row
}

func (r *Renderer) drawTrack() {
	_, h := r.screen.Size()
	leftCol, _ := r.Project(-r.track.Width/2, 0)
	rightCol, _ := r.Project(r.track.Width/2, 0)
	for row := 0; row < h-hudRows; row++ {
		r.screen.SetContent(leftCol-1, row, edgeGlyph, nil, styleEdge)
		r.screen.SetContent(rightCol+1, row, edgeGlyph, nil, styleEdge)
		for col := leftCol; col <= rightCol; col++ {
			r.screen.SetContent(col, row, floorGlyph, nil, styleFloor)
		}
	}
}

func (r *Renderer) drawObstacle(v obstacle.View) {
	style := styleSolid
	switch {
	case v.Hit:
		style = styleHit
	case v.Cleared || v.Scored:
		style = styleCleared
	}
	glyph := glyphs[v.Kind]
	for _, p := range v.Panels {
		ps, pg := style, glyph
		if !p.Solid && v.Kind != obstacle.KindHurdle {
			ps, pg = styleVisual, edgeGlyph
		}
		from, row := r.Project(p.Box.Min.X(), v.Position.Z())
		to, _ := r.Project(p.Box.Max.X(), v.Position.Z())
		for col := from; col <= to; col++ {
			r.screen.SetContent(col, row, pg, nil, ps)
		}
	}
}

func (r *Renderer) drawHUD(h session.HUD) {
	_, height := r.screen.Size()
	line := fmt.Sprintf("Score %d  Combo x%d  Misses %d", h.Score, h.Combo, h.Misses)
	r.drawText(0, height-2, line, styleHUD)

	status := h.Metrics
	if !h.Placed {
		status = "place the track  " + status
	} else if !h.Calibrated {
		status = "calibrating  " + status
	}
	r.drawText(0, height-1, status, styleHUD)

	if r.alertTicks > 0 {
		r.alertTicks--
		r.drawText(len(line)+2, height-2, "MISS!", styleAlert)
	}
}

func (r *Renderer) drawText(x, y int, s string, style tcell.Style) {
	for i, c := range []rune(s) {
		r.screen.SetContent(x+i, y, c, nil, style)
	}
}
