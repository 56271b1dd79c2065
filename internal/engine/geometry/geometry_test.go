package geometry

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/castle-waves/pkg/math"
)

func TestVertexStride(t *testing.T) {
	assert.Equal(t, uintptr(VertexStride), unsafe.Sizeof(Vertex{}))
}

func TestGridIndices(t *testing.T) {
	idx := GridIndices(3, 4)
	require.Len(t, idx, 2*3*6)

	// first quad matches the row-major lattice layout
	assert.Equal(t, []uint32{0, 1, 4, 4, 1, 5}, idx[:6])
	for _, i := range idx {
		assert.Less(t, i, uint32(12))
	}

	assert.Nil(t, GridIndices(1, 4))
}

// every triangle must face the same side as its vertex normals
func assertOutward(t *testing.T, name string, mesh MeshData) {
	t.Helper()
	for k := 0; k < len(mesh.Indices); k += 3 {
		a := mesh.Vertices[mesh.Indices[k]]
		b := mesh.Vertices[mesh.Indices[k+1]]
		c := mesh.Vertices[mesh.Indices[k+2]]
		n := b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
		if n.Length() < 1e-6 {
			continue // degenerate pole triangle
		}
		avg := a.Normal.Add(b.Normal).Add(c.Normal)
		if n.Dot(avg) <= 0 {
			t.Fatalf("%s: triangle %d winds against its normals", name, k/3)
		}
	}
}

func TestBox(t *testing.T) {
	mesh := Box(2, 4, 6)
	require.Len(t, mesh.Vertices, 24)
	require.Len(t, mesh.Indices, 36)

	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1, abs(v.Pos.X), 1e-6)
		assert.InDelta(t, 2, abs(v.Pos.Y), 1e-6)
		assert.InDelta(t, 3, abs(v.Pos.Z), 1e-6)
	}
	assertOutward(t, "box", mesh)
}

func TestGrid(t *testing.T) {
	mesh := Grid(10, 20, 5, 3)
	require.Len(t, mesh.Vertices, 15)
	require.Len(t, mesh.Indices, 4*2*6)

	assert.Equal(t, math.Vec3{X: -5, Z: 10}, mesh.Vertices[0].Pos)
	assert.Equal(t, math.Vec3{X: 5, Z: -10}, mesh.Vertices[14].Pos)
	assertOutward(t, "grid", mesh)
}

func TestSphere(t *testing.T) {
	mesh := Sphere(2, 12, 8)
	require.Len(t, mesh.Vertices, 9*13)
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 2, v.Pos.Length(), 1e-5)
		assert.InDelta(t, 1, v.Normal.Length(), 1e-5)
	}
	assertOutward(t, "sphere", mesh)
}

func TestCylinder(t *testing.T) {
	mesh := Cylinder(1, 0.5, 3, 10, 2)
	side := 3 * 11
	caps := 2 * (11 + 1)
	require.Len(t, mesh.Vertices, side+caps)
	assertOutward(t, "cylinder", mesh)

	cone := Cylinder(1, 0, 2, 8, 1)
	assert.Len(t, cone.Vertices, 2*9+9+1, "cone has no top cap")
	assertOutward(t, "cone", cone)
}

func TestSolids(t *testing.T) {
	tests := []struct {
		name     string
		mesh     MeshData
		vertices int
		indices  int
	}{
		{"pyramid", Pyramid(2, 2, 1), 4*3 + 4, 4*3 + 6},
		{"wedge", Wedge(1, 1, 1), 3*4 + 2*3, 3*6 + 2*3},
		{"prism", Prism(1, 2, 3), 2*3 + 3*4, 2*3 + 3*6},
		{"diamond", Diamond(1, 2, 1), 8 * 3, 8 * 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.mesh.Vertices, tt.vertices)
			assert.Len(t, tt.mesh.Indices, tt.indices)
			for _, v := range tt.mesh.Vertices {
				assert.InDelta(t, 1, v.Normal.Length(), 1e-5)
			}
			assertOutward(t, tt.name, tt.mesh)
		})
	}
}

func TestPyramidApexNormals(t *testing.T) {
	mesh := Pyramid(2, 2, 2)
	for _, v := range mesh.Vertices {
		if v.Pos.Y > 0 {
			assert.Greater(t, v.Normal.Y, float32(0), "side faces lean up")
		}
	}
}

func TestTorus(t *testing.T) {
	mesh := Torus(2, 0.5, 16, 8)
	require.Len(t, mesh.Vertices, 9*17)
	for _, v := range mesh.Vertices {
		ring := math.Vec3{X: v.Pos.X, Z: v.Pos.Z}.Normalize().Scale(2)
		assert.InDelta(t, 0.5, v.Pos.Sub(ring).Length(), 1e-4)
	}
	assertOutward(t, "torus", mesh)

	cone := Cone(1, 2, 8, 1)
	assertOutward(t, "cone", cone)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestBounds(t *testing.T) {
	b := Box(2, 4, 6).Bounds()
	assert.Equal(t, math.Vec3{X: -1, Y: -2, Z: -3}, b.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, b.Max)

	moved := b.Transform(math.Translate(10, 0, 0))
	assert.InDelta(t, 9, moved.Min.X, 1e-6)
	assert.InDelta(t, 11, moved.Max.X, 1e-6)

	turned := b.Transform(math.RotateY(math.Radians(90)))
	assert.InDelta(t, 3, turned.Max.X, 1e-5)
	assert.InDelta(t, 1, turned.Max.Z, 1e-5)

	assert.True(t, b.Intersects(BoxAround(math.Vec3{X: 1.5}, math.Vec3{X: 1, Y: 1, Z: 1})))
	assert.False(t, b.Intersects(BoxAround(math.Vec3{X: 2}, math.Vec3{X: 1, Y: 1, Z: 1})), "touching")
	assert.False(t, b.Intersects(moved))
}

func TestPointSprites(t *testing.T) {
	sprites := []Sprite{
		{Center: math.Vec3{X: 1, Y: 2.5, Z: 3}, Size: math.Vec2{X: 5, Y: 5}},
		{Center: math.Vec3{X: -4, Y: 2.5, Z: 0}, Size: math.Vec2{X: 4, Y: 6}},
	}
	m := PointSprites(sprites)
	require.Len(t, m.Vertices, 2)
	assert.Equal(t, []uint32{0, 1}, m.Indices)
	for i, s := range sprites {
		assert.Equal(t, s, m.SpriteAt(i))
	}

	b := m.Bounds()
	assert.Equal(t, math.Vec3{X: -4, Y: 2.5, Z: 0}, b.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 2.5, Z: 3}, b.Max)

	assert.Empty(t, PointSprites(nil).Indices)
}
