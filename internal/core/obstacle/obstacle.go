package obstacle

import (
	"fmt"

	"github.com/zeusync/arcourse/internal/core/geometry"
)

// Track-local z thresholds shared by every variant.
const (
	// PassZ is where an obstacle counts as behind the player.
	PassZ = 0.3
	// WindowStartZ is the near edge of the hurdle clearance window.
	WindowStartZ = -0.2
	// RecycleZ is where an obstacle leaves play and returns to the pool.
	RecycleZ = 0.6
	// JumpWindow is how recent a jump must be to clear a hurdle, in seconds.
	JumpWindow = 0.35
)

// Result of evaluating an obstacle against the player for one frame.
type Result uint8

const (
	Pending Result = iota
	Scored
	Missed
)

func (r Result) String() string {
	switch r {
	case Scored:
		return "scored"
	case Missed:
		return "missed"
	default:
		return "pending"
	}
}

// Outcome is what the orchestrator applies to the score state.
type Outcome struct {
	Result Result
	Points int
}

func pending() Outcome          { return Outcome{Result: Pending} }
func missed() Outcome           { return Outcome{Result: Missed} }
func scored(points int) Outcome { return Outcome{Result: Scored, Points: points} }

// Context carries the player state an obstacle is judged against.
// Head is in track-local coordinates.
type Context struct {
	Now        float64
	Head       geometry.Vec3
	HeadRadius float64
	LastJumpAt float64
	HasJumped  bool
}

// Panel is one renderable box of an obstacle. Only solid panels collide.
type Panel struct {
	Box   geometry.AABB `json:"box"`
	Solid bool          `json:"solid"`
}

// View is the renderer-facing snapshot of an active obstacle.
type View struct {
	Kind     Kind          `json:"kind"`
	Position geometry.Vec3 `json:"position"`
	Box      geometry.AABB `json:"box"`
	Panels   []Panel       `json:"panels,omitempty"`
	Hit      bool          `json:"hit"`
	Cleared  bool          `json:"cleared"`
	Scored   bool          `json:"scored"`
}

// Obstacle is implemented by every variant. Extents are fixed at
// construction; Spawn resets position, speed and the per-pass flags.
type Obstacle interface {
	Kind() Kind
	Active() bool
	Position() geometry.Vec3
	Speed() float64

	Spawn(start geometry.Vec3, speed float64)
	Advance(dt float64)
	Recycle()

	BoundingBox() geometry.AABB
	Visuals() []Panel
	Evaluate(ctx Context) Outcome
	View() View
}

// New constructs an inactive obstacle of kind sized for track.
func New(kind Kind, track geometry.Track) (Obstacle, error) {
	switch kind {
	case KindOverheadBar:
		return newBar(track), nil
	case KindGateLeft, KindGateRight:
		return newGate(kind, track), nil
	case KindHurdle:
		return newHurdle(track), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
}

// body holds the state common to all variants.
type body struct {
	kind   Kind
	active bool
	speed  float64
	pos    geometry.Vec3

	scored  bool
	missed  bool
	cleared bool
}

func (b *body) Kind() Kind              { return b.kind }
func (b *body) Active() bool            { return b.active }
func (b *body) Position() geometry.Vec3 { return b.pos }
func (b *body) Speed() float64          { return b.speed }

func (b *body) Spawn(start geometry.Vec3, speed float64) {
	b.active = true
	b.pos = start
	b.speed = speed
	b.scored, b.missed, b.cleared = false, false, false
}

// Advance moves the obstacle toward the player.
func (b *body) Advance(dt float64) {
	if !b.active || dt <= 0 {
		return
	}
	b.pos[2] += b.speed * dt
}

func (b *body) Recycle() { b.active = false }

func (b *body) resolved() bool { return b.scored || b.missed || b.cleared }

// evaluateOverlap judges variants that collide with the head sphere.
// A pass registers at most one miss; an obstacle that was hit never scores.
func (b *body) evaluateOverlap(box geometry.AABB, ctx Context, points int) Outcome {
	if b.resolved() {
		return pending()
	}
	if geometry.SphereIntersectsAABB(ctx.Head, ctx.HeadRadius, box) {
		b.missed = true
		return missed()
	}
	if b.pos.Z() > PassZ {
		b.scored = true
		return scored(points)
	}
	return pending()
}

func (b *body) view(box geometry.AABB, panels []Panel) View {
	return View{
		Kind:     b.kind,
		Position: b.pos,
		Box:      box,
		Panels:   panels,
		Hit:      b.missed,
		Cleared:  b.cleared,
		Scored:   b.scored,
	}
}
