package anim

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/highlands/pkg/math"
)

func walkClip() *Clip {
	return NewClip("walk", map[string]*JointAnimation{
		"root": {
			Translations: NewVectorTrack([]Keyframe{
				{Time: 0, Value: math.Vec3{}},
				{Time: 1, Value: math.Vec3{X: 2}},
			}),
		},
		"root/hip": {
			Rotations: NewRotationTrack([]KeyRotation{
				{Time: 0, Value: math.QuatIdentity()},
				{Time: 1.5, Value: math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2)},
			}),
		},
		"root/hip/knee": {},
	})
}

func TestClipPoseAt_TranslationMidpoint(t *testing.T) {
	clip := walkClip()

	pose, ok := clip.PoseAt(0.5, "root")
	require.True(t, ok)
	assert.True(t, pose.Translation().ApproxEqual(math.Vec3{X: 1}, 1e-6), "got %v", pose.Translation())

	// No rotation or scale channel: the rest of the matrix is identity
	want := math.Translate(1, 0, 0)
	assert.True(t, pose.ApproxEqual(want, 1e-6))
}

func TestClipPoseAt_UnknownJoint(t *testing.T) {
	_, ok := walkClip().PoseAt(0.5, "root/tail")
	assert.False(t, ok)
}

func TestClipPoseAt_ChannelsIndependent(t *testing.T) {
	clip := walkClip()
	clip.Repeat = false

	// Only rotation animated: zero translation, rotation applied
	pose, ok := clip.PoseAt(1.5, "root/hip")
	require.True(t, ok)
	assert.True(t, pose.Translation().ApproxEqual(math.Vec3{}, 1e-6))
	got := pose.TransformVec3(math.Vec3{X: 1})
	assert.True(t, got.ApproxEqual(math.Vec3{Y: 1}, 1e-5), "got %v", got)

	// Known joint with no tracks: identity
	pose, ok = clip.PoseAt(0.7, "root/hip/knee")
	require.True(t, ok)
	assert.True(t, pose.ApproxEqual(math.Identity(), 1e-6))
}

func TestClipDuration(t *testing.T) {
	clip := walkClip()
	assert.Equal(t, float32(1.5), clip.Duration)
	assert.Equal(t, float32(1), clip.Speed)
	assert.True(t, clip.Repeat)
	assert.Equal(t, []string{"root", "root/hip", "root/hip/knee"}, clip.JointPaths())
}

func TestClipSpeedScalesClipTime(t *testing.T) {
	clip := walkClip()
	clip.Speed = 2

	pose, ok := clip.PoseAt(0.25, "root")
	require.True(t, ok)
	assert.InDelta(t, 1, pose.Translation().X, 1e-6)
	assert.InDelta(t, 0.75, clip.PlaybackLength(), 1e-6)
}

func TestClipSampleJoint_Fallback(t *testing.T) {
	clip := walkClip()
	rest := math.Transform{
		Translation: math.Vec3{Y: 5},
		Rotation:    math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.3),
		Scale:       math.Vec3{X: 2, Y: 2, Z: 2},
	}

	got, ok := clip.SampleJoint(0.5, "root/hip", rest)
	require.True(t, ok)
	assert.Equal(t, rest.Translation, got.Translation, "translation keeps the fallback")
	assert.Equal(t, rest.Scale, got.Scale)
	assert.NotEqual(t, rest.Rotation, got.Rotation)
}

func TestClipFinished(t *testing.T) {
	clip := walkClip()
	assert.False(t, clip.Finished(10), "repeating clips never finish")

	clip.Repeat = false
	assert.False(t, clip.Finished(1.4))
	assert.True(t, clip.Finished(1.5))

	// Non-repeating clips hold the last key past the end
	pose, ok := clip.PoseAt(5, "root")
	require.True(t, ok)
	assert.InDelta(t, 2, pose.Translation().X, 1e-6)
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary()
	lib.Add(walkClip())
	lib.Add(NewClip("idle", nil))
	lib.Add(nil)

	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, []string{"idle", "walk"}, lib.Names())

	clip, ok := lib.Get("walk")
	require.True(t, ok)
	assert.Equal(t, "walk", clip.Name)

	_, ok = lib.Get("run")
	assert.False(t, ok)

	var nilLib *Library
	_, ok = nilLib.Get("walk")
	assert.False(t, ok)
}
