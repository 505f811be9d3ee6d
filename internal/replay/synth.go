package replay

import (
	"math"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/protocol"
)

type ActionKind uint8

const (
	Duck ActionKind = iota
	Jump
	// Lost drops the pose for the action's duration.
	Lost
)

const (
	gravity   = 9.81
	duckRamp  = 0.15
	jumpSpeed = 2.5
)

type Action struct {
	Kind     ActionKind
	At       float64
	Duration float64
}

// Script describes a synthetic player standing on the track origin.
type Script struct {
	Duration    float64
	Rate        float64
	StandHeight float64
	DuckDepth   float64
	// Sway is the amplitude of a slow side-to-side drift in metres.
	Sway    float64
	Actions []Action
}

func DefaultScript() Script {
	return Script{
		Duration:    30,
		Rate:        60,
		StandHeight: 1.7,
		DuckDepth:   0.7,
	}
}

// Synthesize turns a script into a trace. The first message places the
// track at the origin facing +Z; frames follow at the script rate.
func Synthesize(sc Script) []protocol.ClientMessage {
	if sc.Rate <= 0 {
		sc.Rate = 60
	}
	n := int(math.Round(sc.Duration * sc.Rate))
	msgs := make([]protocol.ClientMessage, 0, n+2)
	msgs = append(msgs, protocol.ClientMessage{
		Type:     protocol.TypePlace,
		Position: geometry.V3(0, sc.StandHeight, 0),
		Forward:  geometry.V3(0, 0, 1),
	})

	for i := 0; i <= n; i++ {
		t := float64(i) / sc.Rate
		msg := protocol.ClientMessage{Type: protocol.TypeFrame, Time: t}
		if !sc.lost(t) {
			x := sc.Sway * math.Sin(2*math.Pi*t/4)
			head := geometry.V3(x, sc.height(t), 0)
			msg.Head = &head
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (sc Script) lost(t float64) bool {
	for _, a := range sc.Actions {
		if a.Kind == Lost && t >= a.At && t < a.At+a.Duration {
			return true
		}
	}
	return false
}

func (sc Script) height(t float64) float64 {
	y := sc.StandHeight
	for _, a := range sc.Actions {
		switch a.Kind {
		case Duck:
			y -= sc.DuckDepth * duckAmount(t-a.At, a.Duration)
		case Jump:
			tau := t - a.At
			if tau > 0 && tau < 2*jumpSpeed/gravity {
				y += jumpSpeed*tau - 0.5*gravity*tau*tau
			}
		}
	}
	return y
}

// duckAmount is 0 standing and 1 fully ducked, with linear ramps either side
// of a hold lasting d seconds.
func duckAmount(tau, d float64) float64 {
	switch {
	case tau <= -duckRamp || tau >= d+duckRamp:
		return 0
	case tau < 0:
		return 1 + tau/duckRamp
	case tau <= d:
		return 1
	default:
		return 1 - (tau-d)/duckRamp
	}
}
