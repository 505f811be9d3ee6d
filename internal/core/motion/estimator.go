package motion

import (
	"fmt"
	"math"

	"github.com/zeusync/arcourse/internal/core/geometry"
)

// Reading is the estimator output for one pose sample.
type Reading struct {
	Time     float64
	RawY     float64
	SmoothY  float64
	SmoothVy float64
	LateralX float64

	Calibrated bool
	// JustCalibrated is set on the sample that completed calibration.
	JustCalibrated bool
	Baseline       float64

	Ducking     bool
	DuckStarted bool
	Jumped      bool
}

// Metrics formats the reading for the HUD. Until calibration completes the
// raw height is shown and vertical velocity reads zero.
func (r Reading) Metrics() string {
	if !r.Calibrated {
		return fmt.Sprintf("H:%.2f vY:%.2f X:%.2f", r.RawY, 0.0, r.LateralX)
	}
	return fmt.Sprintf("H:%.2f vY:%.2f X:%.2f", r.SmoothY, r.SmoothVy, r.LateralX)
}

// Estimator turns a stream of head positions into smoothed height and
// vertical velocity, a calibrated baseline and duck/jump gestures.
// It is not safe for concurrent use.
type Estimator struct {
	cfg Config

	hasLast bool
	lastY   float64
	lastT   float64

	smoothY  float64
	smoothVy float64

	calibrating bool
	calStart    float64
	calSum      float64
	calCount    int

	hasBaseline bool
	baseline    float64

	ducking    bool
	hasJumped  bool
	lastJumpAt float64
	lateralX   float64
}

// NewEstimator creates an uncalibrated estimator.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the thresholds the estimator runs with.
func (e *Estimator) Config() Config { return e.cfg }

// Reset drops all history including the baseline. Called on every placement.
func (e *Estimator) Reset() {
	*e = Estimator{cfg: e.cfg}
}

// Update ingests the head position sampled at time t (seconds, monotonic).
// track may be nil when no track is placed; the lateral offset is then zero.
func (e *Estimator) Update(t float64, head geometry.Vec3, track *geometry.Frame) Reading {
	y := head.Y()

	if e.hasLast {
		dt := math.Max(e.cfg.MinSampleInterval, t-e.lastT)
		vy := (y - e.lastY) / dt
		e.smoothY = geometry.Lowpass(&e.smoothY, y, e.cfg.PositionSmoothing)
		e.smoothVy = geometry.Lowpass(&e.smoothVy, vy, e.cfg.VelocitySmoothing)
	} else {
		// first sample seeds the filter
		e.smoothY = geometry.Lowpass(nil, y, e.cfg.PositionSmoothing)
		e.smoothVy = 0
	}
	e.hasLast = true
	e.lastY, e.lastT = y, t

	r := Reading{Time: t, RawY: y}
	r.JustCalibrated = e.calibrate(t, y)

	if track != nil {
		e.lateralX = track.WorldToLocal(head).X()
	} else {
		e.lateralX = 0
	}

	if e.hasBaseline {
		dy := e.smoothY - e.baseline

		wasDucking := e.ducking
		e.ducking = dy < -e.cfg.DuckDelta
		r.DuckStarted = e.ducking && !wasDucking

		if e.smoothVy > e.cfg.JumpVelocity && dy > e.cfg.JumpMinRise {
			if !e.hasJumped || t-e.lastJumpAt > e.cfg.JumpDebounce {
				e.hasJumped = true
				e.lastJumpAt = t
				r.Jumped = true
			}
		}
	}

	r.SmoothY = e.smoothY
	r.SmoothVy = e.smoothVy
	r.LateralX = e.lateralX
	r.Calibrated = e.hasBaseline
	r.Baseline = e.baseline
	r.Ducking = e.ducking
	return r
}

func (e *Estimator) calibrate(t, y float64) bool {
	if e.hasBaseline {
		return false
	}
	if !e.calibrating {
		e.calibrating = true
		e.calStart = t
		e.calSum, e.calCount = 0, 0
	}
	e.calSum += y
	e.calCount++
	if t-e.calStart >= e.cfg.CalibrationWindow && e.calCount >= e.cfg.CalibrationSamples {
		e.baseline = e.calSum / float64(e.calCount)
		e.hasBaseline = true
		e.calibrating = false
		return true
	}
	return false
}

// Baseline returns the calibrated resting head height.
func (e *Estimator) Baseline() (float64, bool) { return e.baseline, e.hasBaseline }

// LastJumpAt returns the time of the most recent jump gesture.
func (e *Estimator) LastJumpAt() (float64, bool) { return e.lastJumpAt, e.hasJumped }

// Ducking reports the current duck level.
func (e *Estimator) Ducking() bool { return e.ducking }

// LateralX is the head offset across the track from the last update.
func (e *Estimator) LateralX() float64 { return e.lateralX }

// HeadRadius is the collision radius of the head sphere.
func (e *Estimator) HeadRadius() float64 { return e.cfg.HeadRadius }
