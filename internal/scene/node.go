// Package scene holds the node graph that places characters, props and
// cameras in the world, and the world loop that animates them.
package scene

import (
	"errors"

	"github.com/Faultbox/highlands/pkg/math"
)

// Kind tags what a node carries.
type Kind uint8

const (
	KindGroup Kind = iota
	KindCharacter
	KindProp
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindProp:
		return "prop"
	case KindCamera:
		return "camera"
	default:
		return "group"
	}
}

var (
	ErrNodeCycle = errors.New("node would become its own ancestor")
	ErrNilNode   = errors.New("nil node")
)

// Updatable components advance once per world update. Update may only
// modify its own node and component; the world runs updates concurrently.
type Updatable interface {
	Update(n *Node, dt float32) error
}

// Renderable components contribute a draw item to each published frame.
type Renderable interface {
	Render(n *Node, world math.Mat4) DrawItem
}

// CameraProjector components turn a node into a viewpoint.
type CameraProjector interface {
	Projection(aspect float32) math.Mat4
}

// Node is one element of the scene graph. Its local transform is relative
// to its parent.
type Node struct {
	Name      string
	Kind      Kind
	Transform math.Transform
	// Component is the node's behavior: *Character, *Prop, a camera, or nil
	// for groups.
	Component any

	matrix   *math.Mat4
	parent   *Node
	children []*Node
}

// NewNode creates a detached node with an identity transform.
func NewNode(name string, kind Kind, component any) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Transform: math.TransformIdentity(),
		Component: component,
	}
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// AddChild attaches child under n, detaching it from any previous parent.
// Attaching n or one of its ancestors is rejected.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return ErrNodeCycle
		}
	}
	if child.parent != nil {
		child.parent.detach(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// RemoveChild detaches child from n. The child's own children are moved
// up to n so they stay in the scene. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	n.detach(child)
	for _, gc := range child.children {
		gc.parent = n
		n.children = append(n.children, gc)
	}
	child.children = nil
	return true
}

func (n *Node) detach(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// SetMatrix replaces the TRS transform with m until ClearMatrix is called.
func (n *Node) SetMatrix(m math.Mat4) {
	n.matrix = &m
}

// ClearMatrix returns the node to its TRS transform.
func (n *Node) ClearMatrix() {
	n.matrix = nil
}

// LocalMatrix returns the node's transform relative to its parent.
func (n *Node) LocalMatrix() math.Mat4 {
	if n.matrix != nil {
		return *n.matrix
	}
	return n.Transform.Matrix()
}

// WorldTransform returns parent.WorldTransform * LocalMatrix.
func (n *Node) WorldTransform() math.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// Forward returns the node's local +Z axis in parent space.
func (n *Node) Forward() math.Vec3 {
	return n.Transform.Rotation.Rotate(math.Vec3{Z: 1})
}

// Right returns the node's local +X axis in parent space.
func (n *Node) Right() math.Vec3 {
	return n.Transform.Rotation.Rotate(math.Vec3{X: 1})
}

// Walk visits n and its descendants depth-first, parents before
// children. Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Find returns the first node named name in n's subtree.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}
