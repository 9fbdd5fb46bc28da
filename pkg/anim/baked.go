package anim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/highlands/pkg/math"
)

// BakedTransform is a whole-object transform pre-sampled at a fixed frame
// rate. Lookups loop over the baked duration without interpolation.
type BakedTransform struct {
	frames   []math.Mat4
	fps      float32
	duration float32
}

// NewBakedTransform wraps already sampled frames.
func NewBakedTransform(frames []math.Mat4, fps float32) *BakedTransform {
	b := &BakedTransform{
		frames: append([]math.Mat4(nil), frames...),
		fps:    fps,
	}
	if fps > 0 {
		b.duration = float32(len(frames)) / fps
	}
	return b
}

// Bake samples fn from start (inclusive) to end (exclusive) every 1/fps
// seconds.
func Bake(fn func(time float32) math.Mat4, start, end, fps float32) *BakedTransform {
	if fps <= 0 || end <= start {
		return &BakedTransform{fps: fps}
	}
	step := 1 / fps
	count := int(math32.Ceil((end - start) * fps))
	frames := make([]math.Mat4, 0, count)
	for i := 0; i < count; i++ {
		frames = append(frames, fn(start+float32(i)*step))
	}
	return &BakedTransform{
		frames:   frames,
		fps:      fps,
		duration: end - start,
	}
}

// Duration returns the baked length in seconds.
func (b *BakedTransform) Duration() float32 {
	return b.duration
}

// Len returns the number of baked frames.
func (b *BakedTransform) Len() int {
	return len(b.frames)
}

// At returns the frame covering time, looping over the duration. Empty or
// zero-length bakes return identity.
func (b *BakedTransform) At(time float32) math.Mat4 {
	if b == nil || b.duration <= 0 || len(b.frames) == 0 {
		return math.Identity()
	}
	t := math32.Mod(time, b.duration)
	if t < 0 {
		t += b.duration
	}
	frame := int(t * b.fps)
	if frame < len(b.frames) {
		return b.frames[frame]
	}
	return b.frames[len(b.frames)-1]
}
