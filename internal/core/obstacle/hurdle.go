package obstacle

import "github.com/zeusync/arcourse/internal/core/geometry"

const (
	hurdleHeight    = 0.45
	hurdleDepth     = 0.2
	hurdleWidthFrac = 0.6
	hurdlePoints    = 2
)

// Hurdle never touches the head. It is cleared by a jump made while it
// passes through the clearance window and missed otherwise.
type Hurdle struct {
	body
	half geometry.Vec3
}

func newHurdle(track geometry.Track) *Hurdle {
	return &Hurdle{
		body: body{kind: KindHurdle, speed: track.Speed},
		half: geometry.V3(track.Width*hurdleWidthFrac/2, hurdleHeight/2, hurdleDepth/2),
	}
}

func (h *Hurdle) BoundingBox() geometry.AABB {
	return geometry.BoxFromCenter(h.pos.Add(geometry.V3(0, hurdleHeight/2, 0)), h.half)
}

func (h *Hurdle) Visuals() []Panel {
	return []Panel{{Box: h.BoundingBox(), Solid: false}}
}

// InWindow reports whether the hurdle is inside the clearance window.
func (h *Hurdle) InWindow() bool {
	z := h.pos.Z()
	return z >= WindowStartZ && z <= PassZ
}

func (h *Hurdle) Evaluate(ctx Context) Outcome {
	if h.resolved() {
		return pending()
	}
	if h.InWindow() {
		if ctx.HasJumped && ctx.Now-ctx.LastJumpAt < JumpWindow {
			h.cleared = true
			return scored(hurdlePoints)
		}
		return pending()
	}
	if h.pos.Z() > PassZ {
		h.missed = true
		return missed()
	}
	return pending()
}

func (h *Hurdle) View() View { return h.view(h.BoundingBox(), h.Visuals()) }
