package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/zeusync/arcourse/internal/core/events/bus"
)

const sampleRate = beep.SampleRate(48000)

// CuePlayer plays short synthesised cues for gameplay events.
type CuePlayer struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func NewCuePlayer() *CuePlayer {
	return &CuePlayer{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker. Without it cues are silently dropped.
func (p *CuePlayer) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

func (p *CuePlayer) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Attach plays a cue for every event on b that has one.
func (p *CuePlayer) Attach(b bus.EventBus) (bus.Subscription, error) {
	return b.SubscribeAll(func(e bus.Event) error {
		p.Play(e.Type())
		return nil
	})
}

func (p *CuePlayer) Play(t bus.EventType) {
	s := Cue(t)
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Cue returns a fresh streamer for an event type, or nil if it has none.
func Cue(t bus.EventType) beep.Streamer {
	switch t {
	case bus.EventScore:
		return beep.Take(sampleRate.N(120*time.Millisecond), newSweep(660, 990, 0.25))
	case bus.EventMiss:
		return beep.Take(sampleRate.N(250*time.Millisecond), newBuzz(110, 0.3))
	case bus.EventJump:
		return beep.Take(sampleRate.N(60*time.Millisecond), newSweep(440, 520, 0.15))
	case bus.EventCalibrated, bus.EventPlaced:
		return beep.Take(sampleRate.N(200*time.Millisecond), newSweep(520, 520, 0.2))
	default:
		return nil
	}
}

// sweep is a sine tone gliding linearly from one frequency to another over
// one second, with a linear fade-out.
type sweep struct {
	from, to  float64
	amplitude float64
	phase     float64
	pos       int
}

func newSweep(from, to, amplitude float64) *sweep {
	return &sweep{from: from, to: to, amplitude: amplitude}
}

func (g *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	total := float64(sampleRate.N(time.Second))
	for i := range samples {
		t := float64(g.pos) / total
		freq := g.from + (g.to-g.from)*math.Min(t, 1)
		g.phase += 2 * math.Pi * freq / float64(sampleRate)
		v := g.amplitude * math.Sin(g.phase) * math.Max(0, 1-t)
		samples[i][0], samples[i][1] = v, v
		g.pos++
	}
	return len(samples), true
}

func (g *sweep) Err() error { return nil }

// buzz is a square wave.
type buzz struct {
	freq      float64
	amplitude float64
	pos       int
}

func newBuzz(freq, amplitude float64) *buzz {
	return &buzz{freq: freq, amplitude: amplitude}
}

func (g *buzz) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(sampleRate)
		v := g.amplitude
		if math.Sin(2*math.Pi*g.freq*t) < 0 {
			v = -v
		}
		samples[i][0], samples[i][1] = v, v
		g.pos++
	}
	return len(samples), true
}

func (g *buzz) Err() error { return nil }
