package terminal

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/scoring"
	"github.com/zeusync/arcourse/internal/core/session"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(40, 20)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, row int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c, _, _, _ := screen.GetContent(x, row)
		b.WriteRune(c)
	}
	return b.String()
}

func spawned(t *testing.T, kind obstacle.Kind, track geometry.Track, z float64) obstacle.Obstacle {
	t.Helper()
	o, err := obstacle.New(kind, track)
	require.NoError(t, err)
	o.Spawn(geometry.V3(0, 0, z), track.Speed)
	return o
}

func TestRendererDrawsTrack(t *testing.T) {
	screen := newScreen(t)
	track := geometry.DefaultTrack()
	r := New(screen, track)

	bar := spawned(t, obstacle.KindOverheadBar, track, -1)
	hurdle := spawned(t, obstacle.KindHurdle, track, -2.5)
	r.Render([]obstacle.View{bar.View(), hurdle.View()})
	r.UpdateHUD(session.HUD{Score: 3, Combo: 2, Misses: 1, Placed: true, Calibrated: true, Metrics: "H:1.60 vY:0.00 X:0.30", LateralX: 0.3})

	col, row := r.Project(0, -1)
	c, _, _, _ := screen.GetContent(col, row)
	require.Equal(t, '=', c)

	col, row = r.Project(0, -2.5)
	c, _, _, _ = screen.GetContent(col, row)
	require.Equal(t, '_', c)

	col, row = r.Project(0.3, 0)
	c, _, _, _ = screen.GetContent(col, row)
	require.Equal(t, '@', c)

	require.True(t, strings.HasPrefix(rowText(screen, 18), "Score 3  Combo x2  Misses 1"))
	require.True(t, strings.HasPrefix(rowText(screen, 19), "H:1.60 vY:0.00 X:0.30"))
}

func TestProjectOrdersRows(t *testing.T) {
	r := New(newScreen(t), geometry.DefaultTrack())

	_, far := r.Project(0, -3.5)
	_, near := r.Project(0, 0)
	_, past := r.Project(0, obstacle.RecycleZ)
	require.Equal(t, 0, far)
	require.Less(t, far, near)
	require.Less(t, near, past)
	require.Equal(t, 17, past)

	left, _ := r.Project(-0.9, 0)
	right, _ := r.Project(0.9, 0)
	require.Equal(t, 36, right-left)
}

func TestRendererHitAndAlert(t *testing.T) {
	screen := newScreen(t)
	track := geometry.DefaultTrack()
	r := New(screen, track)

	bar := spawned(t, obstacle.KindOverheadBar, track, -0.1)
	out := bar.Evaluate(obstacle.Context{Head: geometry.V3(0, 1.4, 0), HeadRadius: 0.18})
	require.Equal(t, obstacle.Missed, out.Result)

	r.Render([]obstacle.View{bar.View()})
	r.MissAlert(scoring.Snapshot{Misses: 1})
	r.UpdateHUD(session.HUD{Misses: 1, Placed: true})

	col, row := r.Project(0, -0.1)
	c, _, style, _ := screen.GetContent(col, row)
	require.Equal(t, '=', c)
	fg, _, _ := style.Decompose()
	require.Equal(t, tcell.ColorRed, fg)
	require.Contains(t, rowText(screen, 18), "MISS!")

	for i := 0; i < alertFrames; i++ {
		r.UpdateHUD(session.HUD{Misses: 1, Placed: true})
	}
	require.NotContains(t, rowText(screen, 18), "MISS!")
}

func TestRendererUnplaced(t *testing.T) {
	screen := newScreen(t)
	r := New(screen, geometry.DefaultTrack())
	r.UpdateHUD(session.HUD{Placing: true, Metrics: "H:1.60 vY:0.00 X:0.00"})

	require.Equal(t, strings.Repeat(" ", 40), rowText(screen, 5))
	require.Contains(t, rowText(screen, 19), "place the track")
}
