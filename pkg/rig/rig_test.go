package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/highlands/pkg/math"
	"github.com/Faultbox/highlands/pkg/skeleton"
)

func TestLoadKnight(t *testing.T) {
	r, err := Load("testdata/knight.yaml", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "knight", r.Name)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 5, r.Skeleton.Len())

	head, ok := r.Skeleton.Index("root/hips/spine/head")
	require.True(t, ok)
	assert.True(t, r.Skeleton.GlobalTransform(head).Translation().ApproxEqual(math.Vec3{Y: 2}, 1e-6))

	sword, ok := r.Skeleton.Index("root/sword")
	require.True(t, ok)
	assert.True(t, r.Skeleton.GlobalTransform(sword).Translation().ApproxEqual(math.Vec3{X: 0.5, Y: 1}, 1e-6))

	require.Len(t, r.Skins, 2)
	assert.Equal(t, "body", r.Skins[0].Name())
	assert.Equal(t, 0, r.Skins[0].MeshRoot())
	assert.Equal(t, -1, r.Skins[1].MeshRoot())

	assert.Equal(t, []string{"idle", "nod"}, r.Library.Names())

	idle, ok := r.Library.Get("idle")
	require.True(t, ok)
	assert.Equal(t, float32(2), idle.Duration)
	assert.True(t, idle.Repeat)

	nod, ok := r.Library.Get("nod")
	require.True(t, ok)
	assert.Equal(t, float32(2), nod.Speed)
	assert.False(t, nod.Repeat)
}

func TestMissingInverseBindsUseRestPose(t *testing.T) {
	r, err := Load("testdata/knight.yaml", DefaultOptions())
	require.NoError(t, err)

	for _, skin := range r.Skins {
		for slot, m := range skin.Palette(r.Skeleton, nil) {
			assert.True(t, m.ApproxEqual(math.Identity(), 1e-5), "%s slot %d", skin.Name(), slot)
		}
	}
}

func TestExplicitInverseBindKept(t *testing.T) {
	doc := `
joints:
  - name: root
    translation: [1, 0, 0]
    inverse_bind: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
  - name: child
    parent: root
`
	r, err := Parse([]byte(doc), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, math.Identity(), r.Skeleton.InverseBind(0))
	assert.True(t, r.Skeleton.InverseBind(1).ApproxEqual(math.Translate(-1, 0, 0), 1e-6))
}

func TestClipDefaultsFromOptions(t *testing.T) {
	doc := `
joints:
  - name: root
clips:
  - name: once
    joints:
      root:
        scales: [[0, 1, 1, 1], [1, 2, 2, 2]]
`
	r, err := Parse([]byte(doc), Options{Speed: 0.5, Repeat: false})
	require.NoError(t, err)

	clip, ok := r.Library.Get("once")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), clip.Speed)
	assert.False(t, clip.Repeat)
}

func TestImportRepairs(t *testing.T) {
	doc := `
joints:
  - name: root
    rotation: [0, 0, 0, 2]
clips:
  - name: messy
    joints:
      root:
        translations: [[1, 1, 0, 0], [0, 0, 0, 0]]
        rotations: [[0, 0, 0, 0, 3]]
      ghost:
        translations: [[0, 0, 0, 0]]
      root/empty: {}
`
	r, err := Parse([]byte(doc), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, math.QuatIdentity(), r.Skeleton.Local(0).Rotation)
	assert.Len(t, r.Warnings, 6)

	clip, _ := r.Library.Get("messy")
	_, ok := clip.Joint("root/empty")
	assert.False(t, ok, "empty joint animation dropped")

	ja, ok := clip.Joint("root")
	require.True(t, ok)
	keys := ja.Translations.Keys()
	assert.Equal(t, float32(0), keys[0].Time)
	assert.Equal(t, float32(1), keys[1].Time)
	assert.True(t, ja.Rotations.Keys()[0].Value.SameRotation(math.QuatIdentity(), 1e-6))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "no joints",
			doc:     "name: empty\n",
			wantErr: skeleton.ErrNoJoints,
		},
		{
			name:    "unknown parent",
			doc:     "joints:\n  - name: a\n    parent: nope\n",
			wantErr: ErrUnknownParent,
		},
		{
			name:    "duplicate joint",
			doc:     "joints:\n  - name: a\n  - name: a\n",
			wantErr: ErrDuplicateJoint,
		},
		{
			name:    "empty joint name",
			doc:     "joints:\n  - parent: a\n",
			wantErr: ErrMissingJointRef,
		},
		{
			name:    "cycle",
			doc:     "joints:\n  - name: r\n  - name: a\n    parent: b\n  - name: b\n    parent: a\n",
			wantErr: skeleton.ErrCycle,
		},
		{
			name:    "unknown skin joint",
			doc:     "joints:\n  - name: a\nskins:\n  - name: s\n    joints: [b]\n",
			wantErr: ErrUnknownJoint,
		},
		{
			name:    "short key row",
			doc:     "joints:\n  - name: a\nclips:\n  - name: c\n    joints:\n      a:\n        translations: [[0, 1]]\n",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "negative key time",
			doc:     "joints:\n  - name: a\nclips:\n  - name: c\n    joints:\n      a:\n        rotations: [[-1, 0, 0, 0, 1]]\n",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "negative clip speed",
			doc:     "joints:\n  - name: a\nclips:\n  - name: c\n    speed: -1\n",
			wantErr: ErrInvalidSpeed,
		},
		{
			name:    "duplicate clip",
			doc:     "joints:\n  - name: a\nclips:\n  - name: c\n  - name: c\n",
			wantErr: ErrDuplicateClip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), DefaultOptions())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("joints: [\n"), DefaultOptions())
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml", DefaultOptions())
	assert.Error(t, err)
}
