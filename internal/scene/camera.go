package scene

import (
	"github.com/Faultbox/highlands/pkg/math"
)

// PerspectiveCamera projects with a vertical field of view.
type PerspectiveCamera struct {
	FovY float32 // radians
	Near float32
	Far  float32
}

// NewPerspectiveCamera returns a 90 degree camera clipped at [0.1, 25].
func NewPerspectiveCamera() *PerspectiveCamera {
	return &PerspectiveCamera{
		FovY: 1.5707964,
		Near: 0.1,
		Far:  25,
	}
}

func (c *PerspectiveCamera) Projection(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// OrthographicCamera projects a fixed view volume; aspect is ignored.
type OrthographicCamera struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

func (c *OrthographicCamera) Projection(float32) math.Mat4 {
	return math.Ortho(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
}

// ViewMatrix returns the inverse of a camera node's world transform.
func ViewMatrix(n *Node) math.Mat4 {
	return n.WorldTransform().Inverse()
}

// LookAt orients a camera node at eye towards target.
func LookAt(n *Node, eye, target, up math.Vec3) {
	n.SetMatrix(math.LookAt(eye, target, up).Inverse())
}
