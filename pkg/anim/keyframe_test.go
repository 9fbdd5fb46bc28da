package anim

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/highlands/pkg/math"
)

func translationTrack() *VectorTrack {
	return NewVectorTrack([]Keyframe{
		{Time: 0, Value: math.Vec3{X: 0, Y: 0, Z: 0}},
		{Time: 1, Value: math.Vec3{X: 2, Y: 4, Z: 0}},
		{Time: 2, Value: math.Vec3{X: 0, Y: 0, Z: 0}},
	})
}

func rotationTrack() *RotationTrack {
	up := math.Vec3{Y: 1}
	return NewRotationTrack([]KeyRotation{
		{Time: 0, Value: math.QuatIdentity()},
		{Time: 0.5, Value: math.QuatFromAxisAngle(up, gomath.Pi/2)},
		{Time: 1.5, Value: math.QuatFromAxisAngle(up, gomath.Pi)},
		{Time: 2, Value: math.QuatIdentity()},
	})
}

func TestTrackSample_Empty(t *testing.T) {
	var nilTrack *VectorTrack
	_, ok := nilTrack.Sample(0.5, true)
	assert.False(t, ok)

	_, ok = NewVectorTrack(nil).Sample(0.5, false)
	assert.False(t, ok)
}

func TestTrackSample_ClampLow(t *testing.T) {
	tr := translationTrack()
	first := tr.Keys()[0].Value

	for _, tm := range []float32{-5, -0.001, 0} {
		for _, repeat := range []bool{true, false} {
			got, ok := tr.Sample(tm, repeat)
			require.True(t, ok)
			assert.Equal(t, first, got, "time %v repeat %v", tm, repeat)
		}
	}
}

func TestTrackSample_ClampHighWithoutRepeat(t *testing.T) {
	tr := translationTrack()
	last := tr.Keys()[tr.Len()-1].Value

	for _, tm := range []float32{2, 2.5, 100} {
		got, ok := tr.Sample(tm, false)
		require.True(t, ok)
		assert.Equal(t, last, got, "time %v", tm)
	}
}

func TestTrackSample_LerpOnSegment(t *testing.T) {
	tr := translationTrack()

	prevX := float32(-1)
	for i := 1; i < 10; i++ {
		tm := float32(i) / 10
		got, ok := tr.Sample(tm, true)
		require.True(t, ok)

		// On the segment from (0,0,0) to (2,4,0)
		assert.InDelta(t, 2*got.X, got.Y, 1e-5)
		assert.InDelta(t, 0, got.Z, 1e-6)
		assert.InDelta(t, 2*tm, got.X, 1e-5)
		assert.Greater(t, got.X, prevX, "interpolant must increase with time")
		prevX = got.X
	}
}

func TestTrackSample_LoopPeriodic(t *testing.T) {
	tr := translationTrack()
	period := tr.Length()

	for i := 0; i < 20; i++ {
		tm := float32(i) * period / 20
		a, okA := tr.Sample(tm, true)
		b, okB := tr.Sample(tm+period, true)
		require.True(t, okA)
		require.True(t, okB)
		assert.True(t, a.ApproxEqual(b, 1e-4), "t=%v: %v != %v", tm, a, b)
	}
}

func TestTrackSample_RotationBoundaries(t *testing.T) {
	tr := rotationTrack()
	keys := tr.Keys()

	// Interior keys come back bit-exact
	for _, k := range keys[:len(keys)-1] {
		got, ok := tr.Sample(k.Time, false)
		require.True(t, ok)
		assert.Equal(t, k.Value, got, "time %v", k.Time)
	}
	last := keys[len(keys)-1]
	got, ok := tr.Sample(last.Time, false)
	require.True(t, ok)
	assert.Equal(t, last.Value, got)
}

func TestTrackSample_RotationUnitNorm(t *testing.T) {
	tr := rotationTrack()
	for i := 0; i <= 40; i++ {
		got, ok := tr.Sample(float32(i)*0.05, true)
		require.True(t, ok)
		assert.InDelta(t, 1, got.Length(), 1e-4, "time %v", float32(i)*0.05)
	}
}

func TestTrackSample_RotationMidpoint(t *testing.T) {
	tr := rotationTrack()
	got, ok := tr.Sample(0.25, true)
	require.True(t, ok)

	want := math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/4)
	assert.True(t, got.SameRotation(want, 1e-4), "got %v want %v", got, want)
}

func TestNewRotationTrack_Normalizes(t *testing.T) {
	tr := NewRotationTrack([]KeyRotation{
		{Time: 0, Value: math.Quat{W: 2}},
		{Time: 1, Value: math.Quat{X: 3, W: 4}},
	})
	for _, k := range tr.Keys() {
		assert.InDelta(t, 1, k.Value.Length(), 1e-6)
	}
}

func TestTrackSample_DegenerateInterval(t *testing.T) {
	tr := NewVectorTrack([]Keyframe{
		{Time: 0, Value: math.Vec3{X: 1}},
		{Time: 1, Value: math.Vec3{X: 2}},
		{Time: 1, Value: math.Vec3{X: 9}},
		{Time: 2, Value: math.Vec3{X: 3}},
	})

	got, ok := tr.Sample(1, false)
	require.True(t, ok)
	assert.False(t, gomath.IsNaN(float64(got.X)))
	assert.Equal(t, float32(9), got.X, "first pair with t < next.Time starts at the duplicate")
}

func TestTrackSample_SingleKey(t *testing.T) {
	tr := NewVectorTrack([]Keyframe{{Time: 0.5, Value: math.Vec3{X: 7}}})
	for _, tm := range []float32{0, 0.5, 3} {
		got, ok := tr.Sample(tm, true)
		require.True(t, ok)
		assert.Equal(t, float32(7), got.X)
	}
}

func TestTrackSample_WrappedBeforeFirstKey(t *testing.T) {
	tr := NewVectorTrack([]Keyframe{
		{Time: 0.5, Value: math.Vec3{X: 1}},
		{Time: 1, Value: math.Vec3{X: 3}},
	})

	// 1.25 wraps to 0.25, which precedes the first key
	got, ok := tr.Sample(1.25, true)
	require.True(t, ok)
	assert.Equal(t, float32(1), got.X)
}
