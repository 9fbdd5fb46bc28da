package scene

import (
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Faultbox/highlands/internal/logger"
	"github.com/Faultbox/highlands/pkg/anim"
	"github.com/Faultbox/highlands/pkg/math"
	"github.com/Faultbox/highlands/pkg/rig"
	"github.com/Faultbox/highlands/pkg/skeleton"
)

// Character is one animated instance of a rig. It owns its skeleton copy,
// playback controller and skinning palettes; clips are shared with every
// other instance of the rig. A Character is not safe for concurrent use.
type Character struct {
	name       string
	skeleton   *skeleton.Skeleton
	skins      []*skeleton.Skin
	controller *anim.Controller
	palettes   [][]math.Mat4
	blend      float32
	ease       ease.TweenFunc
}

// NewCharacter creates a stopped instance of r in its rest pose.
func NewCharacter(name string, r *rig.Rig) *Character {
	c := &Character{name: name}
	c.bind(r)
	c.controller = anim.NewController(r.Library)
	c.rebuildPalettes()
	return c
}

func (c *Character) bind(r *rig.Rig) {
	c.skeleton = r.Skeleton.Clone()
	c.skeleton.ResetPose()
	c.skins = r.Skins
	c.palettes = make([][]math.Mat4, len(r.Skins))
}

// Name returns the instance name.
func (c *Character) Name() string {
	return c.name
}

// Skeleton returns the instance's skeleton.
func (c *Character) Skeleton() *skeleton.Skeleton {
	return c.skeleton
}

// Controller returns the playback controller.
func (c *Character) Controller() *anim.Controller {
	return c.controller
}

// SetBlend makes Play cross-fade over seconds using fn. Zero switches
// clips instantly.
func (c *Character) SetBlend(seconds float32, fn ease.TweenFunc) {
	c.blend = seconds
	c.ease = fn
	c.controller.SetEase(fn)
}

// Play starts the named clip, cross-fading from the current one when a
// blend is set. Unknown names leave playback unchanged.
func (c *Character) Play(name string) bool {
	ok := c.controller.CrossFadeByName(name, c.blend)
	if !ok {
		logger.Debug("clip not found",
			zap.String("character", c.name),
			zap.String("clip", name),
			zap.Strings("available", c.controller.Library().Names()),
		)
	}
	return ok
}

// Pause freezes playback on the current pose.
func (c *Character) Pause() {
	c.controller.Pause()
}

// Resume continues a paused clip.
func (c *Character) Resume() {
	c.controller.Resume()
}

// Stop clears the active clip. The skeleton holds its last pose.
func (c *Character) Stop() {
	c.controller.Stop()
}

// State returns the playback state.
func (c *Character) State() anim.State {
	return c.controller.State()
}

// Tick advances playback by dt seconds, poses every animated joint,
// refreshes global transforms and rebuilds the skinning palettes. Joints a
// clip has no value for keep their previous local transform.
func (c *Character) Tick(dt float32) {
	c.controller.Tick(dt)

	if c.controller.Clip() != nil {
		s := c.skeleton
		for _, i := range s.Order() {
			local, ok := c.controller.Sample(s.Path(i), s.Local(i))
			if ok {
				s.SetLocal(i, local)
			}
		}
	}

	c.skeleton.Update()
	c.rebuildPalettes()
}

func (c *Character) rebuildPalettes() {
	for k, skin := range c.skins {
		c.palettes[k] = skin.Palette(c.skeleton, c.palettes[k])
	}
}

// GlobalTransform returns a joint's model-space transform.
func (c *Character) GlobalTransform(joint int) math.Mat4 {
	return c.skeleton.GlobalTransform(joint)
}

// SkinningPalette returns the palette of the k-th skin as of the last Tick.
// The slice is reused by the next Tick.
func (c *Character) SkinningPalette(k int) []math.Mat4 {
	if k < 0 || k >= len(c.palettes) {
		return nil
	}
	return c.palettes[k]
}

// Rebind switches the instance to a reloaded rig, keeping the active clip
// and its time when the new rig still has a clip of that name.
func (c *Character) Rebind(r *rig.Rig) {
	prev := c.controller
	c.bind(r)

	next := anim.NewController(r.Library)
	next.SetSpeed(prev.Speed())
	next.SetEase(c.ease)
	c.controller = next

	if clip := prev.Clip(); clip != nil {
		if next.PlayByName(clip.Name) {
			next.SetTime(prev.Time())
			if prev.State() == anim.Paused {
				next.Pause()
			}
		} else {
			logger.Warn("clip dropped by reload",
				zap.String("character", c.name),
				zap.String("clip", clip.Name),
			)
		}
	}
	c.Tick(0)
}

// Update implements Updatable.
func (c *Character) Update(_ *Node, dt float32) error {
	c.Tick(dt)
	return nil
}

// Render implements Renderable. The returned item owns copies of the
// palettes and joint globals.
func (c *Character) Render(n *Node, world math.Mat4) DrawItem {
	item := DrawItem{
		Node:     n.Name,
		Kind:     n.Kind,
		Model:    world,
		Joints:   c.skeleton.Globals(nil),
		Palettes: make(map[string][]math.Mat4, len(c.skins)),
	}
	for k, skin := range c.skins {
		item.Palettes[skin.Name()] = append([]math.Mat4(nil), c.palettes[k]...)
	}
	return item
}
