// Package anim samples keyframed joint animation: per-channel tracks,
// clips that group tracks by joint path, and a playback controller.
package anim

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/highlands/pkg/math"
)

// Key is a single (time, value) sample of a channel.
type Key[V any] struct {
	Time  float32
	Value V
}

// Keyframe is a translation or scale sample.
type Keyframe = Key[math.Vec3]

// KeyRotation is a rotation sample.
type KeyRotation = Key[math.Quat]

// Track is an ordered sequence of samples for one (joint, channel) pair.
// The last key's time is the track's loop length. Tracks are read-only once
// built and may be shared between instances.
type Track[V any] struct {
	keys   []Key[V]
	interp func(a, b V, t float32) V
}

// VectorTrack samples translation or scale keys with linear interpolation.
type VectorTrack = Track[math.Vec3]

// RotationTrack samples rotation keys with shortest-path slerp.
type RotationTrack = Track[math.Quat]

// NewVectorTrack builds a translation/scale track. keys must be ordered by
// time; the slice is copied.
func NewVectorTrack(keys []Keyframe) *VectorTrack {
	return &VectorTrack{
		keys:   append([]Keyframe(nil), keys...),
		interp: math.Vec3.Lerp,
	}
}

// NewRotationTrack builds a rotation track. keys must be ordered by time;
// the slice is copied and every quaternion is normalized.
func NewRotationTrack(keys []KeyRotation) *RotationTrack {
	out := make([]KeyRotation, len(keys))
	for i, k := range keys {
		out[i] = KeyRotation{Time: k.Time, Value: k.Value.Normalize()}
	}
	return &RotationTrack{
		keys:   out,
		interp: math.Quat.Slerp,
	}
}

// Len returns the number of keys.
func (tr *Track[V]) Len() int {
	if tr == nil {
		return 0
	}
	return len(tr.keys)
}

// Keys returns the track's samples. The slice must not be modified.
func (tr *Track[V]) Keys() []Key[V] {
	if tr == nil {
		return nil
	}
	return tr.keys
}

// Length returns the time of the last key, or 0 for an empty track.
func (tr *Track[V]) Length() float32 {
	if tr.Len() == 0 {
		return 0
	}
	return tr.keys[len(tr.keys)-1].Time
}

// Sample returns the channel value at time.
//
// Times at or before the first key return the first value. Past the last
// key a non-repeating track holds the last value, a repeating one wraps
// time by the last key's time. ok is false for an empty track and when no
// key pair brackets the wrapped time; callers hold their previous pose then.
func (tr *Track[V]) Sample(time float32, repeat bool) (value V, ok bool) {
	n := tr.Len()
	if n == 0 {
		return value, false
	}

	first, last := tr.keys[0], tr.keys[n-1]
	if time <= first.Time || n == 1 {
		return first.Value, true
	}
	if time >= last.Time && !repeat {
		return last.Value, true
	}

	t := time
	if last.Time > 0 {
		t = math32.Mod(time, last.Time)
	}

	// First key after the second whose time is past t
	i := sort.Search(n-1, func(j int) bool {
		return t < tr.keys[j+1].Time
	}) + 1
	if i >= n {
		return value, false
	}

	prev, next := tr.keys[i-1], tr.keys[i]
	span := next.Time - prev.Time
	if span <= 0 {
		return prev.Value, true
	}

	f := (t - prev.Time) / span
	switch {
	case f <= 0:
		return prev.Value, true
	case f > 1:
		f = 1
	}
	return tr.interp(prev.Value, next.Value, f), true
}
