// Package skeleton implements joint hierarchies with cached global
// transforms and skinning palettes.
package skeleton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/highlands/pkg/math"
)

// PathSeparator joins ancestor names into a joint path.
const PathSeparator = "/"

var (
	ErrNoJoints         = errors.New("skeleton has no joints")
	ErrParentOutOfRange = errors.New("joint parent out of range")
	ErrSelfParent       = errors.New("joint is its own parent")
	ErrCycle            = errors.New("joint hierarchy contains a cycle")
	ErrDuplicatePath    = errors.New("duplicate joint path")
)

// Joint describes one joint when building a Skeleton. Parent is the index
// of the parent joint in the same slice, or -1 for a root.
type Joint struct {
	Name   string
	Parent int
	// Rest is the local transform at import.
	Rest math.Transform
	// Matrix, when set, replaces the composed Rest transform.
	Matrix *math.Mat4
	// InverseBind is the inverse of the joint's global rest transform.
	InverseBind math.Mat4
}

type joint struct {
	name        string
	path        string
	parent      int
	children    []int
	inverseBind math.Mat4

	rest         math.Transform
	restOverride *math.Mat4

	local    math.Transform
	override *math.Mat4
	global   math.Mat4
	dirty    bool
}

// Skeleton is a joint tree. Joints are owned by the skeleton; a joint refers
// to its parent by index. Global transforms are cached and recomputed
// parent-first after any local change.
type Skeleton struct {
	joints []joint
	order  []int
	roots  []int
	byPath map[string]int
	dirty  bool
}

// New validates the hierarchy and builds a skeleton in its rest pose.
// Parents out of range, self-parenting and cycles are rejected.
func New(joints []Joint) (*Skeleton, error) {
	n := len(joints)
	if n == 0 {
		return nil, ErrNoJoints
	}

	s := &Skeleton{
		joints: make([]joint, n),
		byPath: make(map[string]int, n),
		dirty:  true,
	}

	for i, j := range joints {
		switch {
		case j.Parent >= n:
			return nil, fmt.Errorf("joint %d (%s): %w", i, j.Name, ErrParentOutOfRange)
		case j.Parent == i:
			return nil, fmt.Errorf("joint %d (%s): %w", i, j.Name, ErrSelfParent)
		}

		parent := j.Parent
		if parent < 0 {
			parent = -1
			s.roots = append(s.roots, i)
		}

		var override *math.Mat4
		if j.Matrix != nil {
			m := *j.Matrix
			override = &m
		}

		s.joints[i] = joint{
			name:         j.Name,
			parent:       parent,
			inverseBind:  j.InverseBind,
			rest:         j.Rest,
			restOverride: override,
			local:        j.Rest,
			override:     override,
			dirty:        true,
		}
	}

	for i := range s.joints {
		if p := s.joints[i].parent; p >= 0 {
			s.joints[p].children = append(s.joints[p].children, i)
		}
	}

	// Depth-first from the roots; anything unreached sits on a cycle
	s.order = make([]int, 0, n)
	seen := make([]bool, n)
	stack := make([]int, 0, n)
	for k := len(s.roots) - 1; k >= 0; k-- {
		stack = append(stack, s.roots[k])
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[i] = true
		s.order = append(s.order, i)

		j := &s.joints[i]
		if j.parent < 0 {
			j.path = j.name
		} else {
			j.path = s.joints[j.parent].path + PathSeparator + j.name
		}

		for k := len(j.children) - 1; k >= 0; k-- {
			stack = append(stack, j.children[k])
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("joint %d (%s): %w", i, s.joints[i].name, ErrCycle)
		}
	}

	for _, i := range s.order {
		p := s.joints[i].path
		if _, dup := s.byPath[p]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, p)
		}
		s.byPath[p] = i
	}

	s.Update()
	return s, nil
}

// Clone returns an independent instance sharing no mutable state.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		joints: make([]joint, len(s.joints)),
		order:  s.order,
		roots:  s.roots,
		byPath: s.byPath,
		dirty:  s.dirty,
	}
	copy(c.joints, s.joints)
	for i := range c.joints {
		if o := c.joints[i].override; o != nil {
			m := *o
			c.joints[i].override = &m
		}
	}
	return c
}

// Len returns the number of joints.
func (s *Skeleton) Len() int {
	return len(s.joints)
}

// Name returns a joint's name.
func (s *Skeleton) Name(i int) string {
	return s.joints[i].name
}

// Path returns a joint's slash-separated path from its root.
func (s *Skeleton) Path(i int) string {
	return s.joints[i].path
}

// Parent returns a joint's parent index, or -1 for a root.
func (s *Skeleton) Parent(i int) int {
	return s.joints[i].parent
}

// Children returns a joint's child indices. The slice must not be modified.
func (s *Skeleton) Children(i int) []int {
	return s.joints[i].children
}

// Roots returns the root joint indices.
func (s *Skeleton) Roots() []int {
	return s.roots
}

// Order returns joint indices with every parent before its descendants.
func (s *Skeleton) Order() []int {
	return s.order
}

// Index returns the joint with the given path.
func (s *Skeleton) Index(path string) (int, bool) {
	i, ok := s.byPath[path]
	return i, ok
}

// IndexByName returns the first joint, in hierarchy order, with the given
// name.
func (s *Skeleton) IndexByName(name string) (int, bool) {
	for _, i := range s.order {
		if s.joints[i].name == name {
			return i, true
		}
	}
	return -1, false
}

// InverseBind returns a joint's inverse bind matrix.
func (s *Skeleton) InverseBind(i int) math.Mat4 {
	return s.joints[i].inverseBind
}

// Local returns a joint's local TRS. For joints driven by an override
// matrix this is its decomposition.
func (s *Skeleton) Local(i int) math.Transform {
	j := &s.joints[i]
	if j.override != nil {
		return math.TransformFromMatrix(*j.override)
	}
	return j.local
}

// LocalMatrix returns a joint's local matrix.
func (s *Skeleton) LocalMatrix(i int) math.Mat4 {
	j := &s.joints[i]
	if j.override != nil {
		return *j.override
	}
	return j.local.Matrix()
}

// SetLocal sets a joint's local TRS, dropping any override matrix, and
// invalidates it and its descendants.
func (s *Skeleton) SetLocal(i int, t math.Transform) {
	j := &s.joints[i]
	j.local = t
	j.override = nil
	s.invalidate(i)
}

// SetLocalMatrix overrides a joint's local transform with m.
func (s *Skeleton) SetLocalMatrix(i int, m math.Mat4) {
	s.joints[i].override = &m
	s.invalidate(i)
}

// ResetPose restores every joint to its rest transform.
func (s *Skeleton) ResetPose() {
	for i := range s.joints {
		j := &s.joints[i]
		j.local = j.rest
		j.override = j.restOverride
		j.dirty = true
	}
	s.dirty = true
}

// invalidate marks a joint and all of its descendants for recomputation.
func (s *Skeleton) invalidate(i int) {
	s.dirty = true
	stack := []int{i}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.joints[k].dirty && k != i {
			// Subtree below k is already marked
			continue
		}
		s.joints[k].dirty = true
		stack = append(stack, s.joints[k].children...)
	}
}

// Update recomputes dirty global transforms, parents first.
func (s *Skeleton) Update() {
	if !s.dirty {
		return
	}
	for _, i := range s.order {
		j := &s.joints[i]
		if !j.dirty {
			continue
		}
		local := s.LocalMatrix(i)
		if j.parent < 0 {
			j.global = local
		} else {
			j.global = s.joints[j.parent].global.Mul(local)
		}
		j.dirty = false
	}
	s.dirty = false
}

// GlobalTransform returns a joint's model-space transform, recomputing
// stale globals first.
func (s *Skeleton) GlobalTransform(i int) math.Mat4 {
	s.Update()
	return s.joints[i].global
}

// Globals writes every joint's global transform into dst, indexed by joint,
// and returns it.
func (s *Skeleton) Globals(dst []math.Mat4) []math.Mat4 {
	s.Update()
	dst = grow(dst, len(s.joints))
	for i := range s.joints {
		dst[i] = s.joints[i].global
	}
	return dst
}

// ComputeInverseBinds sets each joint's inverse bind matrix from its
// current global transform. Importers call this when the source has no
// bind matrices and the rest pose is the bind pose.
func (s *Skeleton) ComputeInverseBinds() {
	s.Update()
	for i := range s.joints {
		s.joints[i].inverseBind = s.joints[i].global.Inverse()
	}
}

// String renders the hierarchy as an indented tree.
func (s *Skeleton) String() string {
	var b strings.Builder
	for _, i := range s.order {
		depth := 0
		for p := s.joints[i].parent; p >= 0; p = s.joints[p].parent {
			depth++
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s.joints[i].name)
		b.WriteByte('\n')
	}
	return b.String()
}

func grow(dst []math.Mat4, n int) []math.Mat4 {
	if cap(dst) < n {
		return make([]math.Mat4, n)
	}
	return dst[:n]
}
