package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/castle-waves/pkg/math"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// Bounds returns the box enclosing every vertex of the mesh.
func (m MeshData) Bounds() AABB {
	if len(m.Vertices) == 0 {
		return AABB{}
	}
	b := AABB{Min: m.Vertices[0].Pos, Max: m.Vertices[0].Pos}
	for _, v := range m.Vertices[1:] {
		b = b.include(v.Pos)
	}
	return b
}

// BoxAround returns a box centred on c with the given half extents.
func BoxAround(c, half math.Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

func (b AABB) include(p math.Vec3) AABB {
	b.Min = math.Vec3{X: math32.Min(b.Min.X, p.X), Y: math32.Min(b.Min.Y, p.Y), Z: math32.Min(b.Min.Z, p.Z)}
	b.Max = math.Vec3{X: math32.Max(b.Max.X, p.X), Y: math32.Max(b.Max.Y, p.Y), Z: math32.Max(b.Max.Z, p.Z)}
	return b
}

// Transform returns the box enclosing b's eight corners after m.
func (b AABB) Transform(m math.Mat4) AABB {
	var out AABB
	for k := 0; k < 8; k++ {
		c := b.Min
		if k&1 != 0 {
			c.X = b.Max.X
		}
		if k&2 != 0 {
			c.Y = b.Max.Y
		}
		if k&4 != 0 {
			c.Z = b.Max.Z
		}
		p := m.TransformPoint(c)
		if k == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		out = out.include(p)
	}
	return out
}

// Intersects reports whether the boxes overlap. Touching faces do not count.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}
