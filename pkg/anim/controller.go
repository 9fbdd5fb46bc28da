package anim

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/Faultbox/highlands/pkg/math"
)

// State is the playback state of a Controller.
type State int

const (
	// Stopped has no active clip.
	Stopped State = iota
	// Playing advances time on every Tick.
	Playing
	// Paused keeps the active clip with time frozen.
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// crossFade tracks a transition away from a previous clip. When a fade
// interrupts another, prev keeps the interrupted fade running so the source
// pose is the blend that was on screen, not the bare previous clip.
type crossFade struct {
	from     *Clip
	fromTime float32
	prev     *crossFade
	tween    *gween.Tween
	weight   float32
	elapsed  float32
	duration float32
}

// advance steps the fade weight and reports whether it completed.
func (f *crossFade) advance(step float32) bool {
	f.elapsed += step
	w, done := f.tween.Update(step)
	f.weight = w
	return done
}

// source samples the pose being faded out of.
func (f *crossFade) source(path string, fallback math.Transform) (math.Transform, bool) {
	cur, ok := f.from.SampleJoint(f.fromTime, path, fallback)
	if f.prev == nil {
		return cur, ok
	}
	prev, okPrev := f.prev.source(path, fallback)
	if !ok && !okPrev {
		return fallback, false
	}
	return prev.Blend(cur, f.prev.weight), true
}

// Controller owns the playback state of one animated instance: the active
// clip, current time, speed and play/pause flag. Clips are shared; the
// controller is not safe for concurrent use.
//
// Time is not wrapped while playing; tracks wrap at sample time. float32
// time keeps millisecond resolution for roughly four hours of continuous
// play, after which interpolation gets visibly coarser.
type Controller struct {
	library *Library
	clip    *Clip
	time    float32
	speed   float32
	playing bool

	fade *crossFade
	ease ease.TweenFunc
}

// NewController creates a stopped controller at time 0 with speed 1.
// library may be nil if clips are only started with Play.
func NewController(library *Library) *Controller {
	return &Controller{
		library: library,
		speed:   1,
		ease:    ease.Linear,
	}
}

// SetEase sets the easing used for cross-fade weights.
func (c *Controller) SetEase(fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.Linear
	}
	c.ease = fn
}

// Library returns the clip registry used by PlayByName.
func (c *Controller) Library() *Library {
	return c.library
}

// Play starts clip from time 0. Playing a nil clip stops the controller.
func (c *Controller) Play(clip *Clip) {
	if clip == nil {
		c.Stop()
		return
	}
	c.clip = clip
	c.time = 0
	c.playing = true
	c.fade = nil
}

// PlayByName starts the named clip from the library. Unknown names leave
// the controller unchanged and return false.
func (c *Controller) PlayByName(name string) bool {
	clip, ok := c.library.Get(name)
	if !ok {
		return false
	}
	c.Play(clip)
	return true
}

// CrossFade starts clip from time 0 and blends from the current pose into
// it over duration seconds of playback time. Without an active clip, or with
// a non-positive duration, it behaves like Play. Interrupting a running
// cross-fade blends from the pose it had reached.
func (c *Controller) CrossFade(clip *Clip, duration float32) {
	if clip == nil || c.clip == nil || duration <= 0 {
		c.Play(clip)
		return
	}
	c.fade = &crossFade{
		from:     c.clip,
		fromTime: c.time,
		prev:     c.fade,
		tween:    gween.New(0, 1, duration, c.ease),
		duration: duration,
	}
	c.clip = clip
	c.time = 0
	c.playing = true
}

// CrossFadeByName cross-fades to the named clip. Unknown names leave the
// controller unchanged and return false.
func (c *Controller) CrossFadeByName(name string, duration float32) bool {
	clip, ok := c.library.Get(name)
	if !ok {
		return false
	}
	c.CrossFade(clip, duration)
	return true
}

// Pause freezes time. It is a no-op unless playing.
func (c *Controller) Pause() {
	if c.State() == Playing {
		c.playing = false
	}
}

// Resume continues a paused clip. It is a no-op unless paused.
func (c *Controller) Resume() {
	if c.State() == Paused {
		c.playing = true
	}
}

// Stop clears the active clip and resets time from any state.
func (c *Controller) Stop() {
	c.clip = nil
	c.time = 0
	c.playing = false
	c.fade = nil
}

// Tick advances time by dt * speed while playing.
func (c *Controller) Tick(dt float32) {
	if !c.playing || c.clip == nil {
		return
	}
	step := dt * c.speed
	c.time += step

	if c.fade == nil {
		return
	}
	if c.fade.advance(step) {
		c.fade = nil
		return
	}
	for f := c.fade; f != nil; f = f.prev {
		f.fromTime += step
		if f.prev != nil && f.prev.advance(step) {
			f.prev = nil
		}
	}
}

// State returns the playback state.
func (c *Controller) State() State {
	switch {
	case c.clip == nil:
		return Stopped
	case c.playing:
		return Playing
	default:
		return Paused
	}
}

// IsPlaying reports whether time advances on Tick.
func (c *Controller) IsPlaying() bool {
	return c.playing
}

// Clip returns the active clip, or nil when stopped.
func (c *Controller) Clip() *Clip {
	return c.clip
}

// Time returns the playback time of the active clip.
func (c *Controller) Time() float32 {
	return c.time
}

// SetTime moves the playhead of the active clip.
func (c *Controller) SetTime(t float32) {
	if c.clip == nil {
		return
	}
	c.time = t
}

// Speed returns the playback speed multiplier.
func (c *Controller) Speed() float32 {
	return c.speed
}

// SetSpeed sets the playback speed multiplier.
func (c *Controller) SetSpeed(speed float32) {
	c.speed = speed
}

// Blending reports whether a cross-fade is in progress.
func (c *Controller) Blending() bool {
	return c.fade != nil
}

// BlendProgress returns cross-fade progress in [0, 1], or 0 when not
// blending.
func (c *Controller) BlendProgress() float32 {
	if c.fade == nil {
		return 0
	}
	return min(c.fade.elapsed/c.fade.duration, 1)
}

// Finished reports whether a non-repeating clip has played past its end.
func (c *Controller) Finished() bool {
	return c.clip != nil && c.clip.Finished(c.time)
}

// Sample returns the local transform for a joint path at the current time,
// blended with the previous clip during a cross-fade. Channels no clip
// provides keep fallback. ok is false when no active clip animates the
// joint.
func (c *Controller) Sample(path string, fallback math.Transform) (math.Transform, bool) {
	if c.clip == nil {
		return fallback, false
	}
	cur, ok := c.clip.SampleJoint(c.time, path, fallback)
	if c.fade == nil {
		return cur, ok
	}

	prev, okPrev := c.fade.source(path, fallback)
	if !ok && !okPrev {
		return fallback, false
	}
	return prev.Blend(cur, c.fade.weight), true
}
