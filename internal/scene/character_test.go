package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"

	"github.com/Faultbox/highlands/pkg/anim"
	"github.com/Faultbox/highlands/pkg/math"
	"github.com/Faultbox/highlands/pkg/rig"
)

const armRig = `
name: arm
joints:
  - name: root
    translation: [0, 1, 0]
  - name: arm
    parent: root
  - name: hand
    parent: arm
    translation: [0, 0, 1]
skins:
  - name: sleeve
    joints: [arm, hand]
clips:
  - name: slide
    repeat: false
    joints:
      root/arm:
        translations: [[0, 0, 0, 0], [1, 2, 0, 0]]
  - name: lift
    joints:
      root/arm:
        translations: [[0, 0, 3, 0]]
`

func loadArmRig(t *testing.T) *rig.Rig {
	t.Helper()
	r, err := rig.Parse([]byte(armRig), rig.DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestCharacterRestPose(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))

	assert.Equal(t, anim.Stopped, c.State())
	for slot, m := range c.SkinningPalette(0) {
		assert.True(t, m.ApproxEqual(math.Identity(), 1e-6), "slot %d", slot)
	}
	assert.Nil(t, c.SkinningPalette(1))
}

func TestCharacterTickPosesJoints(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	require.True(t, c.Play("slide"))

	c.Tick(0.5)

	arm, _ := c.Skeleton().Index("root/arm")
	hand, _ := c.Skeleton().Index("root/arm/hand")
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 1, Y: 1}, 1e-6))
	assert.True(t, c.GlobalTransform(hand).Translation().ApproxEqual(math.Vec3{X: 1, Y: 1, Z: 1}, 1e-6), "child follows")

	palette := c.SkinningPalette(0)
	require.Len(t, palette, 2)
	assert.True(t, palette[0].ApproxEqual(math.Translate(1, 0, 0), 1e-6))
	assert.True(t, palette[1].ApproxEqual(math.Translate(1, 0, 0), 1e-6))
}

func TestCharacterPauseResumeStop(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	arm, _ := c.Skeleton().Index("root/arm")
	require.True(t, c.Play("slide"))
	c.Tick(0.25)

	c.Pause()
	assert.Equal(t, anim.Paused, c.State())
	before := c.GlobalTransform(arm)
	c.Tick(0.5)
	assert.Equal(t, before, c.GlobalTransform(arm))

	c.Resume()
	c.Tick(0.25)
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 1, Y: 1}, 1e-6))

	c.Stop()
	assert.Equal(t, anim.Stopped, c.State())
	c.Tick(1)
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 1, Y: 1}, 1e-6), "stop holds the pose")
}

func TestCharacterUnknownClip(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	require.True(t, c.Play("slide"))

	assert.False(t, c.Play("dance"))
	assert.Equal(t, "slide", c.Controller().Clip().Name)
	assert.Equal(t, anim.Playing, c.State())
}

func TestCharacterCrossFade(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	c.SetBlend(1, ease.Linear)
	arm, _ := c.Skeleton().Index("root/arm")

	require.True(t, c.Play("slide"))
	c.Tick(1)
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 2, Y: 1}, 1e-6))

	require.True(t, c.Play("lift"))
	assert.True(t, c.Controller().Blending())

	c.Tick(0.5)
	// Halfway between (2,0,0) and (0,3,0), under the root's (0,1,0)
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 1, Y: 2.5}, 1e-5))

	c.Tick(0.5)
	assert.False(t, c.Controller().Blending())
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{Y: 4}, 1e-5))
}

func TestCharacterInstancesIndependent(t *testing.T) {
	r := loadArmRig(t)
	a := NewCharacter("a", r)
	b := NewCharacter("b", r)

	require.True(t, a.Play("slide"))
	a.Tick(1)
	b.Tick(1)

	arm, _ := r.Skeleton.Index("root/arm")
	assert.True(t, a.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 2, Y: 1}, 1e-6))
	assert.True(t, b.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{Y: 1}, 1e-6))
	assert.True(t, r.Skeleton.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{Y: 1}, 1e-6), "rig untouched")
}

func TestCharacterRebind(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	require.True(t, c.Play("slide"))
	c.Tick(0.5)
	c.Pause()

	c.Rebind(loadArmRig(t))
	assert.Equal(t, anim.Paused, c.State())
	assert.Equal(t, float32(0.5), c.Controller().Time())

	arm, _ := c.Skeleton().Index("root/arm")
	assert.True(t, c.GlobalTransform(arm).Translation().ApproxEqual(math.Vec3{X: 1, Y: 1}, 1e-6))

	// A rig without the clip leaves the character stopped
	r, err := rig.Parse([]byte("joints:\n  - name: root\n"), rig.DefaultOptions())
	require.NoError(t, err)
	c.Rebind(r)
	assert.Equal(t, anim.Stopped, c.State())
}

func TestCharacterRender(t *testing.T) {
	c := NewCharacter("hero", loadArmRig(t))
	require.True(t, c.Play("slide"))
	c.Tick(0.5)

	n := NewNode("hero", KindCharacter, c)
	item := c.Render(n, math.Translate(10, 0, 0))
	assert.Equal(t, "hero", item.Node)
	assert.Equal(t, KindCharacter, item.Kind)
	assert.Len(t, item.Joints, 3)
	require.Contains(t, item.Palettes, "sleeve")

	// Snapshot does not alias the live palette
	item.Palettes["sleeve"][0] = math.Mat4{}
	assert.True(t, c.SkinningPalette(0)[0].ApproxEqual(math.Translate(1, 0, 0), 1e-6))
}
