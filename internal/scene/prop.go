package scene

import (
	"github.com/Faultbox/highlands/pkg/anim"
	"github.com/Faultbox/highlands/pkg/math"
)

// Prop is a rigid object moved by a baked transform track. Without a track
// it stays at its node's TRS.
type Prop struct {
	baked *anim.BakedTransform
	time  float32
}

// NewProp creates a prop driven by baked, which may be nil.
func NewProp(baked *anim.BakedTransform) *Prop {
	return &Prop{baked: baked}
}

// Time returns the prop's playback time.
func (p *Prop) Time() float32 {
	return p.time
}

func (p *Prop) Update(n *Node, dt float32) error {
	if p.baked == nil || p.baked.Len() == 0 {
		return nil
	}
	p.time += dt
	n.SetMatrix(p.baked.At(p.time))
	return nil
}

func (p *Prop) Render(n *Node, world math.Mat4) DrawItem {
	return DrawItem{Node: n.Name, Kind: n.Kind, Model: world}
}
