package pool

import (
	"fmt"

	"github.com/zeusync/arcourse/internal/core/geometry"
	"github.com/zeusync/arcourse/internal/core/obstacle"
	"github.com/zeusync/arcourse/pkg/generic"
)

// Slot addresses one pooled obstacle: its kind and its index in that kind's arena.
type Slot struct {
	Kind  obstacle.Kind `json:"kind"`
	Index int           `json:"index"`
}

type entry struct {
	slot Slot
	obs  obstacle.Obstacle
}

// Pool owns every obstacle built during a session. Instances are built on
// first demand, reused through a per-kind free list and never destroyed.
// It is not safe for concurrent use.
type Pool struct {
	track  geometry.Track
	arenas [obstacle.KindCount]*generic.Arena[obstacle.Obstacle]
	active []entry
}

func New(track geometry.Track) *Pool {
	p := &Pool{track: track}
	for _, kind := range obstacle.Kinds() {
		kind := kind
		p.arenas[kind] = generic.NewArena(func() obstacle.Obstacle {
			// kinds are validated before Acquire reaches the arena
			o, _ := obstacle.New(kind, track)
			return o
		})
	}
	return p
}

// Acquire hands out an inactive obstacle of kind, building one only when
// every existing instance of that kind is in play. The caller spawns it.
func (p *Pool) Acquire(kind obstacle.Kind) (obstacle.Obstacle, Slot, error) {
	if !kind.Valid() {
		return nil, Slot{}, fmt.Errorf("acquire: %w: %d", obstacle.ErrUnknownKind, uint8(kind))
	}
	idx, o, _ := p.arenas[kind].Acquire()
	slot := Slot{Kind: kind, Index: idx}
	p.active = append(p.active, entry{slot: slot, obs: o})
	return o, slot, nil
}

// Advance moves every active obstacle. Nothing is recycled here: obstacles
// must be evaluated at their new position before Sweep removes them.
func (p *Pool) Advance(dt float64) {
	for _, e := range p.active {
		e.obs.Advance(dt)
	}
}

// Sweep recycles obstacles that scrolled past obstacle.RecycleZ.
func (p *Pool) Sweep() int {
	return p.recycleWhere(func(o obstacle.Obstacle) bool {
		return o.Position().Z() > obstacle.RecycleZ
	})
}

// Clear recycles every active obstacle.
func (p *Pool) Clear() {
	p.recycleWhere(func(obstacle.Obstacle) bool { return true })
}

func (p *Pool) recycleWhere(match func(obstacle.Obstacle) bool) int {
	kept := p.active[:0]
	recycled := 0
	for _, e := range p.active {
		if match(e.obs) {
			e.obs.Recycle()
			p.arenas[e.slot.Kind].Release(e.slot.Index)
			recycled++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(p.active); i++ {
		p.active[i] = entry{}
	}
	p.active = kept
	return recycled
}

// Each calls fn for every active obstacle in spawn order.
func (p *Pool) Each(fn func(Slot, obstacle.Obstacle)) {
	for _, e := range p.active {
		fn(e.slot, e.obs)
	}
}

// Views appends a renderer snapshot of every active obstacle to dst.
func (p *Pool) Views(dst []obstacle.View) []obstacle.View {
	for _, e := range p.active {
		dst = append(dst, e.obs.View())
	}
	return dst
}

// Len is the number of active obstacles.
func (p *Pool) Len() int { return len(p.active) }

// ActiveCount is the number of active obstacles of kind.
func (p *Pool) ActiveCount(kind obstacle.Kind) int {
	if !kind.Valid() {
		return 0
	}
	return p.arenas[kind].Live()
}

// Allocated is the number of obstacles of kind ever built.
func (p *Pool) Allocated(kind obstacle.Kind) int {
	if !kind.Valid() {
		return 0
	}
	return p.arenas[kind].Len()
}
