package obstacle

import "github.com/zeusync/arcourse/internal/core/geometry"

const (
	gateHeight    = 2.0
	gateDepth     = 0.25
	gatePostWidth = 0.1
	gatePoints    = 1
)

// Gate blocks two of the three lanes with a solid panel. The lane named by
// the kind stays open and is marked by a post that does not collide.
type Gate struct {
	body
	half    geometry.Vec3
	offsetX float64

	postHalf    geometry.Vec3
	postOffsetX float64
}

func newGate(kind Kind, track geometry.Track) *Gate {
	openSide := 1.0
	if kind == KindGateLeft {
		openSide = -1
	}
	blockSide := -openSide
	panelWidth := track.Width * 2 / 3

	return &Gate{
		body:        body{kind: kind, speed: track.Speed},
		half:        geometry.V3(panelWidth/2, gateHeight/2, gateDepth/2),
		offsetX:     blockSide * (track.Width/2 - panelWidth/2),
		postHalf:    geometry.V3(gatePostWidth/2, gateHeight/2, gateDepth/2),
		postOffsetX: openSide * (track.Width/2 + gatePostWidth/2),
	}
}

// OffsetX is the x offset of the blocking panel from the obstacle origin.
func (g *Gate) OffsetX() float64 { return g.offsetX }

func (g *Gate) BoundingBox() geometry.AABB {
	return geometry.BoxFromCenter(g.pos.Add(geometry.V3(g.offsetX, gateHeight/2, 0)), g.half)
}

func (g *Gate) post() geometry.AABB {
	return geometry.BoxFromCenter(g.pos.Add(geometry.V3(g.postOffsetX, gateHeight/2, 0)), g.postHalf)
}

func (g *Gate) Visuals() []Panel {
	return []Panel{
		{Box: g.BoundingBox(), Solid: true},
		{Box: g.post(), Solid: false},
	}
}

func (g *Gate) Evaluate(ctx Context) Outcome {
	return g.evaluateOverlap(g.BoundingBox(), ctx, gatePoints)
}

func (g *Gate) View() View { return g.view(g.BoundingBox(), g.Visuals()) }
