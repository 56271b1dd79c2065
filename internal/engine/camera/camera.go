// Package camera provides the first-person camera used to walk the castle.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/pkg/math"
)

// DefaultEyeHeight is the height the camera is pinned to when walking.
const DefaultEyeHeight = 2.0

// Camera is a first-person camera with an orthonormal basis in a
// right-handed world: right = look x up.
type Camera struct {
	position math.Vec3
	right    math.Vec3
	up       math.Vec3
	look     math.Vec3

	// Frustum
	fovY   float32 // radians
	aspect float32
	nearZ  float32
	farZ   float32

	// LockHeight pins the eye to EyeHeight after every move.
	LockHeight bool
	EyeHeight  float32

	// Half extents of the box used for collision queries.
	HalfExtents math.Vec3

	view      math.Mat4
	proj      math.Mat4
	viewDirty bool
}

// New creates a camera at the origin looking down +Z with a 45 degree lens.
func New() *Camera {
	c := &Camera{
		right:       math.Vec3{X: -1},
		up:          math.Vec3{Y: 1},
		look:        math.Vec3{Z: 1},
		EyeHeight:   DefaultEyeHeight,
		HalfExtents: math.Vec3{X: 0.5, Y: 1.5, Z: 0.5},
		viewDirty:   true,
	}
	c.SetLens(0.25*math32.Pi, 1, 1, 1000)
	return c
}

// Position returns the eye position in world space.
func (c *Camera) Position() math.Vec3 { return c.position }

// Right returns the camera's right vector.
func (c *Camera) Right() math.Vec3 { return c.right }

// Up returns the camera's up vector.
func (c *Camera) Up() math.Vec3 { return c.up }

// Look returns the viewing direction.
func (c *Camera) Look() math.Vec3 { return c.look }

// NearZ returns the near plane distance.
func (c *Camera) NearZ() float32 { return c.nearZ }

// FarZ returns the far plane distance.
func (c *Camera) FarZ() float32 { return c.farZ }

// Aspect returns the frustum aspect ratio.
func (c *Camera) Aspect() float32 { return c.aspect }

// FovY returns the vertical field of view in radians.
func (c *Camera) FovY() float32 { return c.fovY }

// SetPosition moves the eye.
func (c *Camera) SetPosition(p math.Vec3) {
	c.position = p
	c.applyHeightLock()
	c.viewDirty = true
}

// LookAt orients the camera from pos towards target.
func (c *Camera) LookAt(pos, target, worldUp math.Vec3) {
	c.look = target.Sub(pos).Normalize()
	c.right = c.look.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.look)
	c.SetPosition(pos)
}

// SetLens configures the projection.
func (c *Camera) SetLens(fovY, aspect, zn, zf float32) {
	c.fovY = fovY
	c.aspect = aspect
	c.nearZ = zn
	c.farZ = zf
	c.proj = math.Perspective(fovY, aspect, zn, zf)
}

// Walk moves along the look vector.
func (c *Camera) Walk(d float32) {
	c.SetPosition(c.position.Add(c.look.Scale(d)))
}

// Strafe moves along the right vector.
func (c *Camera) Strafe(d float32) {
	c.SetPosition(c.position.Add(c.right.Scale(d)))
}

// ProposeWalk returns where Walk(d) would put the eye without moving.
func (c *Camera) ProposeWalk(d float32) math.Vec3 {
	return c.locked(c.position.Add(c.look.Scale(d)))
}

// ProposeStrafe returns where Strafe(d) would put the eye without moving.
func (c *Camera) ProposeStrafe(d float32) math.Vec3 {
	return c.locked(c.position.Add(c.right.Scale(d)))
}

// BoxAt returns the collision box for an eye at p.
func (c *Camera) BoxAt(p math.Vec3) geometry.AABB {
	return geometry.BoxAround(p, c.HalfExtents)
}

// Move walks then strafes. A component whose destination box is blocked is
// dropped, so the camera slides along walls instead of stopping.
func (c *Camera) Move(walk, strafe float32, blocked func(geometry.AABB) bool) {
	if walk != 0 {
		if p := c.ProposeWalk(walk); blocked == nil || !blocked(c.BoxAt(p)) {
			c.SetPosition(p)
		}
	}
	if strafe != 0 {
		if p := c.ProposeStrafe(strafe); blocked == nil || !blocked(c.BoxAt(p)) {
			c.SetPosition(p)
		}
	}
}

// Pitch rotates the up and look vectors about the right vector. Positive
// angles look up.
func (c *Camera) Pitch(angle float32) {
	r := rotationAbout(c.right, angle)
	c.up = r.TransformDirection(c.up)
	c.look = r.TransformDirection(c.look)
	c.viewDirty = true
}

// RotateY rotates the basis about the world Y axis.
func (c *Camera) RotateY(angle float32) {
	r := math.RotateY(angle)
	c.right = r.TransformDirection(c.right)
	c.up = r.TransformDirection(c.up)
	c.look = r.TransformDirection(c.look)
	c.viewDirty = true
}

// View returns the view matrix, rebuilding it after a move or rotation.
func (c *Camera) View() math.Mat4 {
	if c.viewDirty {
		c.updateView()
	}
	return c.view
}

// Proj returns the projection matrix.
func (c *Camera) Proj() math.Mat4 { return c.proj }

func (c *Camera) updateView() {
	// Keep the basis orthonormal; rotations accumulate error.
	c.look = c.look.Normalize()
	c.up = c.right.Cross(c.look).Normalize()
	c.right = c.look.Cross(c.up)

	c.view = math.LookAt(c.position, c.position.Add(c.look), c.up)
	c.viewDirty = false
}

func (c *Camera) applyHeightLock() {
	c.position = c.locked(c.position)
}

func (c *Camera) locked(p math.Vec3) math.Vec3 {
	if c.LockHeight {
		p.Y = c.EyeHeight
	}
	return p
}

// rotationAbout returns a rotation of angle radians about the unit axis a.
func rotationAbout(a math.Vec3, angle float32) math.Mat4 {
	s, co := math32.Sincos(angle)
	t := 1 - co
	return math.Mat4{
		t*a.X*a.X + co, t*a.X*a.Y + s*a.Z, t*a.X*a.Z - s*a.Y, 0,
		t*a.X*a.Y - s*a.Z, t*a.Y*a.Y + co, t*a.Y*a.Z + s*a.X, 0,
		t*a.X*a.Z + s*a.Y, t*a.Y*a.Z - s*a.X, t*a.Z*a.Z + co, 0,
		0, 0, 0, 1,
	}
}
