package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/highlands/pkg/math"
)

// ErrJointOutOfRange is returned for skin joints not in the skeleton.
var ErrJointOutOfRange = errors.New("skin joint out of range")

// Skin binds a mesh to a subset of skeleton joints. Palette index i belongs
// to Joints()[i], which is the order the mesh's joint indices refer to.
type Skin struct {
	name     string
	joints   []int
	meshRoot int
}

// NewSkin creates a skin over the given joints of s. meshRoot is the joint
// carrying the mesh, or -1 when the mesh sits at the model origin.
func NewSkin(s *Skeleton, name string, joints []int, meshRoot int) (*Skin, error) {
	for _, j := range joints {
		if j < 0 || j >= s.Len() {
			return nil, fmt.Errorf("skin %s joint %d: %w", name, j, ErrJointOutOfRange)
		}
	}
	if meshRoot >= s.Len() {
		return nil, fmt.Errorf("skin %s mesh root %d: %w", name, meshRoot, ErrJointOutOfRange)
	}
	if meshRoot < 0 {
		meshRoot = -1
	}
	return &Skin{
		name:     name,
		joints:   append([]int(nil), joints...),
		meshRoot: meshRoot,
	}, nil
}

// Name returns the skin name.
func (k *Skin) Name() string {
	return k.name
}

// Joints returns the skeleton joint index for every palette slot.
func (k *Skin) Joints() []int {
	return k.joints
}

// MeshRoot returns the joint carrying the mesh, or -1.
func (k *Skin) MeshRoot() int {
	return k.meshRoot
}

// Palette writes meshInverseGlobal * jointGlobal * inverseBind for every
// skin joint into dst and returns it. dst is reused when large enough;
// previous contents are overwritten.
func (k *Skin) Palette(s *Skeleton, dst []math.Mat4) []math.Mat4 {
	s.Update()

	meshInverse := math.Identity()
	if k.meshRoot >= 0 {
		meshInverse = s.joints[k.meshRoot].global.Inverse()
	}

	dst = grow(dst, len(k.joints))
	for i, j := range k.joints {
		jt := &s.joints[j]
		m := jt.global.Mul(jt.inverseBind)
		if k.meshRoot >= 0 {
			m = meshInverse.Mul(m)
		}
		dst[i] = m
	}
	return dst
}
