package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/arcourse/internal/core/geometry"
)

const frameDT = 1.0 / 60.0

// calibrated feeds a steady head height until the baseline is set and
// returns the estimator together with the time of the next frame.
func calibrated(t *testing.T, y float64) (*Estimator, float64) {
	t.Helper()
	e := NewEstimator(DefaultConfig())
	now := 0.0
	for i := 0; i < 600; i++ {
		r := e.Update(now, geometry.V3(0, y, 0), nil)
		now += frameDT
		if r.Calibrated {
			return e, now
		}
	}
	t.Fatal("estimator never calibrated")
	return nil, 0
}

func TestEstimatorConstantSignal(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	now := 0.0
	var last Reading
	for i := 0; i < 300; i++ {
		last = e.Update(now, geometry.V3(0.1, 1.62, -0.2), nil)
		require.False(t, last.Jumped)
		require.False(t, last.Ducking)
		now += frameDT
	}
	require.True(t, last.Calibrated)
	require.InDelta(t, 0.0, last.SmoothVy, 1e-9)
	require.InDelta(t, 1.62, last.SmoothY, 1e-9)
	require.InDelta(t, 1.62, last.Baseline, 1e-9)
}

func TestEstimatorCalibration(t *testing.T) {
	t.Run("baseline is the mean of the window", func(t *testing.T) {
		e := NewEstimator(DefaultConfig())
		var sum float64
		var n int
		now := 0.0
		for i := 0; i < 600; i++ {
			y := 1.6 + 0.03*math.Sin(float64(i)*0.7)
			r := e.Update(now, geometry.V3(0, y, 0), nil)
			sum += y
			n++
			if r.JustCalibrated {
				require.GreaterOrEqual(t, now, 2.0-1e-9)
				require.GreaterOrEqual(t, n, 20)
				require.InDelta(t, sum/float64(n), r.Baseline, 1e-12)
				return
			}
			require.False(t, r.Calibrated)
			now += frameDT
		}
		t.Fatal("calibration never completed")
	})

	t.Run("needs enough samples", func(t *testing.T) {
		e := NewEstimator(DefaultConfig())
		now := 0.0
		for i := 0; i < 19; i++ {
			r := e.Update(now, geometry.V3(0, 1.6, 0), nil)
			require.False(t, r.Calibrated)
			now += 0.5
		}
		r := e.Update(now, geometry.V3(0, 1.6, 0), nil)
		require.True(t, r.Calibrated)
	})

	t.Run("reset clears baseline", func(t *testing.T) {
		e, now := calibrated(t, 1.7)
		_, ok := e.Baseline()
		require.True(t, ok)

		e.Reset()
		_, ok = e.Baseline()
		require.False(t, ok)
		r := e.Update(now, geometry.V3(0, 1.7, 0), nil)
		require.False(t, r.Calibrated)
		require.Equal(t, 1.7, r.SmoothY)
	})
}

func TestEstimatorJumpDebounce(t *testing.T) {
	e, now := calibrated(t, 1.6)

	y := 1.6
	var jumps []float64
	for i := 0; i < 90; i++ {
		y += 0.05
		r := e.Update(now, geometry.V3(0, y, 0), nil)
		if r.Jumped {
			jumps = append(jumps, now)
			at, ok := e.LastJumpAt()
			require.True(t, ok)
			require.Equal(t, now, at)
		}
		now += frameDT
	}

	require.GreaterOrEqual(t, len(jumps), 2)
	for i := 1; i < len(jumps); i++ {
		require.Greater(t, jumps[i]-jumps[i-1], 0.35)
	}
}

func TestEstimatorDuckLevel(t *testing.T) {
	e, now := calibrated(t, 1.6)

	starts := 0
	for i := 0; i < 60; i++ {
		r := e.Update(now, geometry.V3(0, 1.25, 0), nil)
		if r.DuckStarted {
			starts++
		}
		now += frameDT
	}
	require.True(t, e.Ducking())
	require.Equal(t, 1, starts)

	for i := 0; i < 60; i++ {
		e.Update(now, geometry.V3(0, 1.6, 0), nil)
		now += frameDT
	}
	require.False(t, e.Ducking())
}

func TestEstimatorLateralOffset(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	frame := geometry.NewFrame(geometry.V3(1, 0, 0), 0)

	r := e.Update(0, geometry.V3(1.4, 1.6, -0.3), &frame)
	require.InDelta(t, 0.4, r.LateralX, 1e-12)

	r = e.Update(frameDT, geometry.V3(1.4, 1.6, -0.3), nil)
	require.Equal(t, 0.0, r.LateralX)
}

func TestEstimatorGuardsNonPositiveInterval(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	e.Update(1.0, geometry.V3(0, 1.6, 0), nil)
	r := e.Update(1.0, geometry.V3(0, 1.601, 0), nil)
	require.False(t, math.IsInf(r.SmoothVy, 0))
	require.InDelta(t, 0.2, r.SmoothVy, 1e-9)

	r = e.Update(0.5, geometry.V3(0, 1.601, 0), nil)
	require.False(t, math.IsNaN(r.SmoothVy))
}

func TestReadingMetrics(t *testing.T) {
	require.Equal(t, "H:1.60 vY:0.00 X:0.00", Reading{RawY: 1.6, SmoothVy: 3}.Metrics())
	require.Equal(t, "H:1.55 vY:-0.25 X:0.12", Reading{
		Calibrated: true,
		SmoothY:    1.5512,
		SmoothVy:   -0.2499,
		LateralX:   0.1234,
	}.Metrics())
}
