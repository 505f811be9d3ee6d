package obstacle

import "github.com/zeusync/arcourse/internal/core/geometry"

const (
	// barBottom is the height of the lower edge; standing heads reach it.
	barBottom    = 1.35
	barThickness = 0.15
	barDepth     = 0.25
	barPoints    = 1
)

// Bar spans the whole track at head height; the player has to duck under it.
type Bar struct {
	body
	half geometry.Vec3
}

func newBar(track geometry.Track) *Bar {
	return &Bar{
		body: body{kind: KindOverheadBar, speed: track.Speed},
		half: geometry.V3(track.Width/2, barThickness/2, barDepth/2),
	}
}

func (b *Bar) BoundingBox() geometry.AABB {
	return geometry.BoxFromCenter(b.pos.Add(geometry.V3(0, barBottom+barThickness/2, 0)), b.half)
}

func (b *Bar) Visuals() []Panel {
	return []Panel{{Box: b.BoundingBox(), Solid: true}}
}

func (b *Bar) Evaluate(ctx Context) Outcome {
	return b.evaluateOverlap(b.BoundingBox(), ctx, barPoints)
}

func (b *Bar) View() View { return b.view(b.BoundingBox(), b.Visuals()) }
