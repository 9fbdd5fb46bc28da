package anim

import (
	"sort"

	"github.com/Faultbox/highlands/pkg/math"
)

// JointAnimation holds the channels animating one joint. Any channel may be
// nil.
type JointAnimation struct {
	Translations *VectorTrack
	Rotations    *RotationTrack
	Scales       *VectorTrack
}

// Length returns the latest last-key time across the joint's channels.
func (ja *JointAnimation) Length() float32 {
	if ja == nil {
		return 0
	}
	return max(ja.Translations.Length(), ja.Rotations.Length(), ja.Scales.Length())
}

// Sample evaluates every channel at time. Channels that are absent or yield
// no value keep the corresponding component of fallback; each channel is
// resolved independently.
func (ja *JointAnimation) Sample(time float32, repeat bool, fallback math.Transform) math.Transform {
	out := fallback
	if ja == nil {
		return out
	}
	if v, ok := ja.Translations.Sample(time, repeat); ok {
		out.Translation = v
	}
	if q, ok := ja.Rotations.Sample(time, repeat); ok {
		out.Rotation = q
	}
	if s, ok := ja.Scales.Sample(time, repeat); ok {
		out.Scale = s
	}
	return out
}

// Clip is a named, time-bounded set of joint animations keyed by joint path.
// A clip is immutable after construction and may be shared between
// instances.
type Clip struct {
	Name string
	// Duration is the largest last-key time over all tracks, in clip time.
	Duration float32
	// Speed scales playback time into clip time.
	Speed float32
	// Repeat wraps sampling past each track's end instead of holding the
	// last key.
	Repeat bool

	joints map[string]*JointAnimation
}

// NewClip builds a clip from joint animations keyed by joint path.
// Speed defaults to 1 and Repeat to true.
func NewClip(name string, joints map[string]*JointAnimation) *Clip {
	c := &Clip{
		Name:   name,
		Speed:  1,
		Repeat: true,
		joints: make(map[string]*JointAnimation, len(joints)),
	}
	for path, ja := range joints {
		c.joints[path] = ja
		c.Duration = max(c.Duration, ja.Length())
	}
	return c
}

// Joint returns the animation for a joint path.
func (c *Clip) Joint(path string) (*JointAnimation, bool) {
	ja, ok := c.joints[path]
	return ja, ok
}

// JointPaths returns the animated joint paths in sorted order.
func (c *Clip) JointPaths() []string {
	paths := make([]string, 0, len(c.joints))
	for p := range c.joints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PlaybackLength returns the clip duration in playback seconds.
func (c *Clip) PlaybackLength() float32 {
	if c.Speed <= 0 {
		return c.Duration
	}
	return c.Duration / c.Speed
}

func (c *Clip) clipTime(time float32) float32 {
	if c.Speed == 0 {
		return time
	}
	return time * c.Speed
}

// SampleJoint returns the local transform of a joint at playback time.
// Missing channels take their value from fallback. ok is false when the
// clip does not animate the joint.
func (c *Clip) SampleJoint(time float32, path string, fallback math.Transform) (math.Transform, bool) {
	ja, ok := c.joints[path]
	if !ok {
		return fallback, false
	}
	return ja.Sample(c.clipTime(time), c.Repeat, fallback), true
}

// PoseAt returns translation * rotation * scale for a joint at playback
// time, substituting zero translation, identity rotation and unit scale for
// channels with no value. ok is false for joints the clip does not animate.
func (c *Clip) PoseAt(time float32, path string) (math.Mat4, bool) {
	t, ok := c.SampleJoint(time, path, math.TransformIdentity())
	if !ok {
		return math.Mat4{}, false
	}
	return t.Matrix(), true
}

// Finished reports whether a non-repeating clip has played past its end.
func (c *Clip) Finished(time float32) bool {
	return !c.Repeat && c.clipTime(time) >= c.Duration
}
