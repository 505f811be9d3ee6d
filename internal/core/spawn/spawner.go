package spawn

import (
	"math/rand/v2"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
)

// Config controls spawn cadence and the mix of obstacle kinds.
type Config struct {
	// Weights of bars, gates (split evenly left/right) and hurdles.
	BarWeight    float64 `yaml:"bar_weight" toml:"bar_weight"`
	GateWeight   float64 `yaml:"gate_weight" toml:"gate_weight"`
	HurdleWeight float64 `yaml:"hurdle_weight" toml:"hurdle_weight"`

	// FirstInterval is the delay before the first spawn after a reset.
	FirstInterval float64 `yaml:"first_interval" toml:"first_interval"`
	// Speeds SlowSpeed and FastSpeed map linearly to SlowInterval and FastInterval.
	SlowSpeed    float64 `yaml:"slow_speed" toml:"slow_speed"`
	FastSpeed    float64 `yaml:"fast_speed" toml:"fast_speed"`
	SlowInterval float64 `yaml:"slow_interval" toml:"slow_interval"`
	FastInterval float64 `yaml:"fast_interval" toml:"fast_interval"`
	Jitter       float64 `yaml:"jitter" toml:"jitter"`
	MinInterval  float64 `yaml:"min_interval" toml:"min_interval"`
	MaxInterval  float64 `yaml:"max_interval" toml:"max_interval"`

	// StartMargin is how far beyond the far end of the track obstacles appear.
	StartMargin float64 `yaml:"start_margin" toml:"start_margin"`
}

func DefaultConfig() Config {
	return Config{
		BarWeight:     0.40,
		GateWeight:    0.35,
		HurdleWeight:  0.25,
		FirstInterval: 1.1,
		SlowSpeed:     1.0,
		FastSpeed:     2.5,
		SlowInterval:  1.4,
		FastInterval:  0.9,
		Jitter:        0.3,
		MinInterval:   0.75,
		MaxInterval:   1.8,
		StartMargin:   0.5,
	}
}

// Spawn describes one obstacle to put into play, in track-local space.
type Spawn struct {
	Kind  obstacle.Kind
	Start geometry.Vec3
	Speed float64
}

// Spawner emits spawns on a jittered, speed-scaled timer.
// It is not safe for concurrent use.
type Spawner struct {
	cfg   Config
	track geometry.Track
	rng   *rand.Rand

	elapsed float64
	next    float64
}

// New creates a spawner. rng must not be nil.
func New(cfg Config, track geometry.Track, rng *rand.Rand) *Spawner {
	return &Spawner{
		cfg:   cfg,
		track: track,
		rng:   rng,
		next:  cfg.FirstInterval,
	}
}

// Reset restarts the timer with the first-spawn delay.
func (s *Spawner) Reset() {
	s.elapsed = 0
	s.next = s.cfg.FirstInterval
}

// Advance accumulates dt and emits at most one spawn when the interval is reached.
func (s *Spawner) Advance(dt float64) (Spawn, bool) {
	if dt > 0 {
		s.elapsed += dt
	}
	if s.elapsed < s.next {
		return Spawn{}, false
	}
	s.elapsed = 0
	sp := s.roll()
	s.next = s.Interval(s.rng.Float64())
	return sp, true
}

func (s *Spawner) roll() Spawn {
	kind := s.pickKind(s.rng.Float64())
	start := geometry.V3(0, 0, s.track.SpawnZ(s.cfg.StartMargin))
	if kind == obstacle.KindHurdle {
		lanes := s.track.Lanes()
		start[0] = lanes[s.rng.IntN(len(lanes))]
	}
	return Spawn{Kind: kind, Start: start, Speed: s.track.Speed}
}

// pickKind maps a uniform sample in [0,1) onto the weighted kinds.
func (s *Spawner) pickKind(r float64) obstacle.Kind {
	total := s.cfg.BarWeight + s.cfg.GateWeight + s.cfg.HurdleWeight
	if total <= 0 {
		return obstacle.KindOverheadBar
	}
	r *= total
	switch {
	case r < s.cfg.BarWeight:
		return obstacle.KindOverheadBar
	case r < s.cfg.BarWeight+s.cfg.GateWeight:
		if s.rng.Float64() < 0.5 {
			return obstacle.KindGateLeft
		}
		return obstacle.KindGateRight
	default:
		return obstacle.KindHurdle
	}
}

// Interval computes the next spawn gap for the current track speed from a
// uniform jitter sample u in [0,1).
func (s *Spawner) Interval(u float64) float64 {
	base := geometry.MapLinear(s.track.Speed, s.cfg.SlowSpeed, s.cfg.FastSpeed, s.cfg.SlowInterval, s.cfg.FastInterval)
	jitter := (u*2 - 1) * s.cfg.Jitter
	return geometry.Clamp(base+jitter, s.cfg.MinInterval, s.cfg.MaxInterval)
}
