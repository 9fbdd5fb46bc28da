package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/highlands/pkg/math"
)

// FollowCamera is a perspective camera that trails a focus node from
// behind and above. The world places it after every update, so its node
// must be a direct child of the world root.
type FollowCamera struct {
	PerspectiveCamera

	Focus *Node

	Yaw   float32 // radians around the focus
	Pitch float32 // radians above the horizon

	Distance    float32
	MinDistance float32
	MaxDistance float32
	// Height lifts the look-at point above the focus origin.
	Height float32

	YawSensitivity  float32
	ZoomSensitivity float32
}

// NewFollowCamera creates a camera trailing focus.
func NewFollowCamera(focus *Node) *FollowCamera {
	return &FollowCamera{
		PerspectiveCamera: *NewPerspectiveCamera(),
		Focus:             focus,
		Pitch:             0.7,
		Distance:          3,
		MinDistance:       1,
		MaxDistance:       20,
		Height:            1.5,
		YawSensitivity:    0.005,
		ZoomSensitivity:   0.1,
	}
}

// Position returns the camera position for a focus point.
func (c *FollowCamera) Position(target math.Vec3) math.Vec3 {
	sinP, cosP := math32.Sincos(c.Pitch)
	sinY, cosY := math32.Sincos(c.Yaw)
	horiz := c.Distance * cosP
	return math.Vec3{
		X: target.X - horiz*sinY,
		Y: target.Y + c.Distance*sinP,
		Z: target.Z - horiz*cosY,
	}
}

// Place moves n to look at the focus. Without a focus n is left alone.
func (c *FollowCamera) Place(n *Node) {
	if c.Focus == nil {
		return
	}
	target := c.Focus.WorldTransform().Translation()
	eye := c.Position(target)
	target.Y += c.Height
	LookAt(n, eye, target, math.Vec3{Y: 1})
}

// HandleYaw orbits horizontally around the focus.
func (c *FollowCamera) HandleYaw(deltaX float32) {
	c.Yaw -= deltaX * c.YawSensitivity
}

// HandleZoom changes the distance to the focus within its limits.
func (c *FollowCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// Forward returns the camera heading on the XZ plane.
func (c *FollowCamera) Forward() math.Vec3 {
	sinY, cosY := math32.Sincos(c.Yaw)
	return math.Vec3{X: sinY, Z: cosY}
}
