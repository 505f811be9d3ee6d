package session

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/zeusync/arcourse/internal/core/events/bus"
	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/motion"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/internal/core/pool"
	"github.com/zeusync/arcourse/internal/core/scoring"
	"github.com/zeusync/arcourse/internal/core/spawn"
)

type State uint8

const (
	StateUnplaced State = iota
	StatePlaced
)

func (s State) String() string {
	if s == StatePlaced {
		return "placed"
	}
	return "unplaced"
}

// Sample is one pose reading. HasPose is false when tracking was lost.
type Sample struct {
	Time    float64
	Head    geometry.Vec3
	HasPose bool
}

// Anchor is where the track goes and which way it faces.
type Anchor struct {
	Position geometry.Vec3
	Forward  geometry.Vec3
}

// Step summarises what one call to Frame did.
type Step struct {
	Skipped bool
	Dt      float64
	Reading motion.Reading
	Spawned int
	Scored  int
	Missed  int
}

type Option func(*GameSession)

func WithID(id string) Option {
	return func(s *GameSession) { s.id = id }
}

func WithLogger(l log.Log) Option {
	return func(s *GameSession) { s.log = l }
}

func WithHUDSink(h HUDSink) Option {
	return func(s *GameSession) { s.hud = h }
}

func WithRenderer(r Renderer) Option {
	return func(s *GameSession) { s.renderer = r }
}

// WithSeed seeds the spawner's random source.
func WithSeed(seed uint64) Option {
	return func(s *GameSession) { s.seed = seed }
}

func WithBus(b bus.EventBus) Option {
	return func(s *GameSession) { s.bus = b }
}

// GameSession runs the per-frame gameplay loop for one player.
// It is driven by a single goroutine and is not safe for concurrent use.
type GameSession struct {
	id  string
	cfg Config
	log log.Log
	bus bus.EventBus

	hud      HUDSink
	renderer Renderer
	seed     uint64

	state   State
	placing bool
	frame   geometry.Frame

	estimator *motion.Estimator
	pool      *pool.Pool
	spawner   *spawn.Spawner
	stats     *scoring.Stats

	hasLastTime bool
	lastTime    float64
	reading     motion.Reading
	views       []obstacle.View
}

// New creates an unplaced session in placement mode.
func New(cfg Config, opts ...Option) *GameSession {
	s := &GameSession{
		cfg:      cfg,
		hud:      nopSink{},
		renderer: nopSink{},
		placing:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.log == nil {
		s.log = log.Provide()
	}
	s.log = s.log.With(log.String("component", "session"), log.String("session_id", s.id))
	if s.bus == nil {
		s.bus = bus.New()
	}

	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	s.estimator = motion.NewEstimator(cfg.Player)
	s.pool = pool.New(cfg.Track)
	s.spawner = spawn.New(cfg.Spawner, cfg.Track, rng)
	s.stats = scoring.NewStats()
	s.stats.OnMiss(func(snap scoring.Snapshot) {
		if a, ok := s.hud.(Alerter); ok {
			a.MissAlert(snap)
		}
	})
	return s
}

func (s *GameSession) ID() string              { return s.id }
func (s *GameSession) Bus() bus.EventBus       { return s.bus }
func (s *GameSession) State() State            { return s.state }
func (s *GameSession) Placing() bool           { return s.placing }
func (s *GameSession) Stats() scoring.Snapshot { return s.stats.Snapshot() }
func (s *GameSession) Pool() *pool.Pool        { return s.pool }
func (s *GameSession) Reading() motion.Reading { return s.reading }

// TrackFrame returns the anchored frame and whether the track is placed.
func (s *GameSession) TrackFrame() (geometry.Frame, bool) {
	return s.frame, s.state == StatePlaced
}

// TogglePlacement flips placement mode and returns the new value.
func (s *GameSession) TogglePlacement() bool {
	s.placing = !s.placing
	return s.placing
}

// Place anchors the track and starts a fresh round: calibration, stats, pool
// and spawner all reset. Re-placing an already placed track is allowed.
func (s *GameSession) Place(a Anchor) error {
	if !s.placing {
		return fmt.Errorf("place: %w", ErrNotPlacing)
	}
	s.frame = geometry.FrameFromForward(a.Position, a.Forward)
	s.state = StatePlaced
	// the first frame on a new track steps by zero
	s.hasLastTime = false

	s.estimator.Reset()
	s.stats.Reset()
	s.pool.Clear()
	s.spawner.Reset()

	s.log.Info("track placed",
		log.Float64("x", s.frame.Origin.X()),
		log.Float64("z", s.frame.Origin.Z()),
		log.Float64("yaw", s.frame.Yaw),
	)
	s.publish(bus.EventPlaced, s.lastTime, PlacedEvent{Origin: s.frame.Origin, Yaw: s.frame.Yaw})
	return nil
}

// Recenter moves the track to a new anchor without touching game state.
func (s *GameSession) Recenter(a Anchor) error {
	if s.state != StatePlaced {
		return fmt.Errorf("recenter: %w", ErrNotPlaced)
	}
	s.frame = geometry.FrameFromForward(a.Position, a.Forward)
	s.log.Debug("track recentered", log.Float64("yaw", s.frame.Yaw))
	s.publish(bus.EventRecentered, s.lastTime, PlacedEvent{Origin: s.frame.Origin, Yaw: s.frame.Yaw})
	return nil
}

// Reset zeroes the stats and empties the track. Calibration is kept.
func (s *GameSession) Reset() {
	s.stats.Reset()
	s.pool.Clear()
	s.spawner.Reset()
	s.publish(bus.EventReset, s.lastTime, s.stats.Snapshot())
}

// SpawnObstacle puts an obstacle into play directly, bypassing the timer.
func (s *GameSession) SpawnObstacle(sp spawn.Spawn) (pool.Slot, error) {
	if s.state != StatePlaced {
		return pool.Slot{}, fmt.Errorf("spawn: %w", ErrNotPlaced)
	}
	o, slot, err := s.pool.Acquire(sp.Kind)
	if err != nil {
		return pool.Slot{}, fmt.Errorf("spawn: %w", err)
	}
	o.Spawn(sp.Start, sp.Speed)
	s.log.Debug("obstacle spawned",
		log.String("kind", sp.Kind.String()),
		log.Int("index", slot.Index),
		log.Float64("z", sp.Start.Z()),
	)
	s.publish(bus.EventSpawn, s.lastTime, SpawnEvent{Kind: sp.Kind, Slot: slot, Start: sp.Start, Speed: sp.Speed})
	return slot, nil
}

// Frame processes one pose sample. A sample without a pose changes nothing.
func (s *GameSession) Frame(sample Sample) Step {
	if !sample.HasPose {
		return Step{Skipped: true}
	}

	dt := 0.0
	if s.hasLastTime {
		dt = sample.Time - s.lastTime
	}
	if dt < 0 {
		dt = 0
	}
	if s.cfg.MaxFrameDelta > 0 && dt > s.cfg.MaxFrameDelta {
		dt = s.cfg.MaxFrameDelta
	}
	s.hasLastTime = true
	s.lastTime = sample.Time

	var track *geometry.Frame
	if s.state == StatePlaced {
		track = &s.frame
	}
	r := s.estimator.Update(sample.Time, sample.Head, track)
	s.reading = r
	s.publishGestures(r)

	step := Step{Dt: dt, Reading: r}
	if s.state == StatePlaced {
		s.play(sample, dt, &step)
	}

	snap := s.stats.Snapshot()
	s.hud.UpdateHUD(HUD{
		Score:      snap.Score,
		Combo:      snap.Combo,
		Misses:     snap.Misses,
		Metrics:    r.Metrics(),
		LateralX:   r.LateralX,
		Calibrated: r.Calibrated,
		Placed:     s.state == StatePlaced,
		Placing:    s.placing,
	})
	return step
}

func (s *GameSession) play(sample Sample, dt float64, step *Step) {
	if s.cfg.AutoSpawn {
		if sp, ok := s.spawner.Advance(dt); ok {
			if _, err := s.SpawnObstacle(sp); err != nil {
				s.log.Warn("spawn failed", log.Error(err))
			} else {
				step.Spawned++
			}
		}
	}
	s.pool.Advance(dt)

	ctx := obstacle.Context{
		Now:        sample.Time,
		Head:       s.frame.WorldToLocal(sample.Head),
		HeadRadius: s.estimator.HeadRadius(),
	}
	ctx.LastJumpAt, ctx.HasJumped = s.estimator.LastJumpAt()

	s.pool.Each(func(_ pool.Slot, o obstacle.Obstacle) {
		out := o.Evaluate(ctx)
		switch out.Result {
		case obstacle.Scored:
			s.stats.AddScore(out.Points)
			step.Scored++
			s.publish(bus.EventScore, sample.Time, ScoreEvent{Kind: o.Kind(), Points: out.Points, Stats: s.stats.Snapshot()})
		case obstacle.Missed:
			s.stats.AddMiss()
			step.Missed++
			s.publish(bus.EventMiss, sample.Time, MissEvent{Kind: o.Kind(), Stats: s.stats.Snapshot()})
		}
	})
	s.pool.Sweep()

	s.views = s.pool.Views(s.views[:0])
	s.renderer.Render(s.views)
}

func (s *GameSession) publishGestures(r motion.Reading) {
	if r.JustCalibrated {
		s.log.Info("calibrated", log.Float64("baseline", r.Baseline))
		s.publish(bus.EventCalibrated, r.Time, CalibratedEvent{Baseline: r.Baseline})
	}
	if r.DuckStarted {
		s.publish(bus.EventDuck, r.Time, GestureEvent{Height: r.SmoothY, Vy: r.SmoothVy})
	}
	if r.Jumped {
		s.publish(bus.EventJump, r.Time, GestureEvent{Height: r.SmoothY, Vy: r.SmoothVy})
	}
}

func (s *GameSession) publish(t bus.EventType, at float64, data any) {
	if err := s.bus.Publish(bus.NewEvent(t, s.id, at, data)); err != nil {
		s.log.Warn("event handler failed", log.String("event", string(t)), log.Error(err))
	}
}
