// Package geometry generates the procedural meshes the castle scene is built
// from and the index layout shared with the waves grid.
package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/castle-waves/pkg/math"
)

// Vertex is the interleaved vertex format used by every mesh, including the
// dynamic waves buffer. 32 bytes, tightly packed.
type Vertex struct {
	Pos    math.Vec3
	Normal math.Vec3
	TexC   math.Vec2
}

// VertexStride is the byte size of Vertex.
const VertexStride = 32

// MeshData is CPU-side geometry ready for upload.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// GridIndices returns the triangle list for a rows x cols lattice of
// vertices stored row-major: two triangles per quad, counter-clockwise when
// the lattice's row axis runs towards -Z and its column axis towards +X.
func GridIndices(rows, cols int) []uint32 {
	if rows < 2 || cols < 2 {
		return nil
	}
	indices := make([]uint32, 0, (rows-1)*(cols-1)*6)
	n := uint32(cols)
	for i := uint32(0); i < uint32(rows-1); i++ {
		for j := uint32(0); j < n-1; j++ {
			indices = append(indices,
				i*n+j, i*n+j+1, (i+1)*n+j,
				(i+1)*n+j, i*n+j+1, (i+1)*n+j+1,
			)
		}
	}
	return indices
}

// Grid builds a flat m x n vertex grid in the XZ plane centred at the origin.
func Grid(width, depth float32, m, n int) MeshData {
	halfWidth := 0.5 * width
	halfDepth := 0.5 * depth
	dx := width / float32(n-1)
	dz := depth / float32(m-1)
	du := 1 / float32(n-1)
	dv := 1 / float32(m-1)

	vertices := make([]Vertex, 0, m*n)
	for i := 0; i < m; i++ {
		z := halfDepth - float32(i)*dz
		for j := 0; j < n; j++ {
			x := -halfWidth + float32(j)*dx
			vertices = append(vertices, Vertex{
				Pos:    math.Vec3{X: x, Z: z},
				Normal: math.Vec3{Y: 1},
				TexC:   math.Vec2{X: float32(j) * du, Y: float32(i) * dv},
			})
		}
	}
	return MeshData{Vertices: vertices, Indices: GridIndices(m, n)}
}

type boxFace struct {
	n, u, v math.Vec3
}

// u x v == n for every face, which keeps the quads counter-clockwise when
// seen from outside.
var boxFaces = [6]boxFace{
	{n: math.Vec3{Z: 1}, u: math.Vec3{X: 1}, v: math.Vec3{Y: 1}},
	{n: math.Vec3{Z: -1}, u: math.Vec3{X: -1}, v: math.Vec3{Y: 1}},
	{n: math.Vec3{X: 1}, u: math.Vec3{Z: -1}, v: math.Vec3{Y: 1}},
	{n: math.Vec3{X: -1}, u: math.Vec3{Z: 1}, v: math.Vec3{Y: 1}},
	{n: math.Vec3{Y: 1}, u: math.Vec3{X: 1}, v: math.Vec3{Z: -1}},
	{n: math.Vec3{Y: -1}, u: math.Vec3{X: 1}, v: math.Vec3{Z: 1}},
}

// Box builds an axis-aligned box with 4 vertices per face so every face has
// its own normal and texture coordinates.
func Box(width, height, depth float32) MeshData {
	half := math.Vec3{X: 0.5 * width, Y: 0.5 * height, Z: 0.5 * depth}
	scale := func(v math.Vec3) math.Vec3 {
		return math.Vec3{X: v.X * half.X, Y: v.Y * half.Y, Z: v.Z * half.Z}
	}

	var mesh MeshData
	corners := [4]struct{ su, sv float32 }{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range boxFaces {
		base := uint32(len(mesh.Vertices))
		for _, c := range corners {
			p := f.n.Add(f.u.Scale(c.su)).Add(f.v.Scale(c.sv))
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Pos:    scale(p),
				Normal: f.n,
				TexC:   math.Vec2{X: 0.5 * (c.su + 1), Y: 0.5 * (1 - c.sv)},
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}

// Sphere builds a UV sphere. Poles are duplicated per slice so the whole
// surface shares the GridIndices layout.
func Sphere(radius float32, slices, stacks int) MeshData {
	vertices := make([]Vertex, 0, (stacks+1)*(slices+1))
	for i := 0; i <= stacks; i++ {
		phi := float32(i) * math32.Pi / float32(stacks)
		sinPhi, cosPhi := math32.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := float32(j) * 2 * math32.Pi / float32(slices)
			sinTheta, cosTheta := math32.Sincos(theta)
			n := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			vertices = append(vertices, Vertex{
				Pos:    n.Scale(radius),
				Normal: n,
				TexC:   math.Vec2{X: theta / (2 * math32.Pi), Y: phi / math32.Pi},
			})
		}
	}
	return MeshData{Vertices: vertices, Indices: GridIndices(stacks+1, slices+1)}
}

// Cylinder builds a capped, possibly tapered cylinder centred at the origin
// along Y. A zero top radius gives a cone.
func Cylinder(bottomRadius, topRadius, height float32, slices, stacks int) MeshData {
	var mesh MeshData
	dr := bottomRadius - topRadius
	for i := 0; i <= stacks; i++ {
		y := 0.5*height - float32(i)*height/float32(stacks)
		r := topRadius + float32(i)*dr/float32(stacks)
		for j := 0; j <= slices; j++ {
			theta := float32(j) * 2 * math32.Pi / float32(slices)
			s, c := math32.Sincos(theta)
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Pos:    math.Vec3{X: r * c, Y: y, Z: r * s},
				Normal: math.Vec3{X: height * c, Y: dr, Z: height * s}.Normalize(),
				TexC:   math.Vec2{X: float32(j) / float32(slices), Y: float32(i) / float32(stacks)},
			})
		}
	}
	mesh.Indices = GridIndices(stacks+1, slices+1)

	appendCap(&mesh, topRadius, 0.5*height, slices, true)
	appendCap(&mesh, bottomRadius, -0.5*height, slices, false)
	return mesh
}

func appendCap(mesh *MeshData, radius, y float32, slices int, top bool) {
	if radius <= 0 {
		return
	}
	ny := float32(-1)
	if top {
		ny = 1
	}
	base := uint32(len(mesh.Vertices))
	for j := 0; j <= slices; j++ {
		theta := float32(j) * 2 * math32.Pi / float32(slices)
		s, c := math32.Sincos(theta)
		mesh.Vertices = append(mesh.Vertices, Vertex{
			Pos:    math.Vec3{X: radius * c, Y: y, Z: radius * s},
			Normal: math.Vec3{Y: ny},
			TexC:   math.Vec2{X: 0.5*c + 0.5, Y: 0.5*s + 0.5},
		})
	}
	center := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, Vertex{
		Pos:    math.Vec3{Y: y},
		Normal: math.Vec3{Y: ny},
		TexC:   math.Vec2{X: 0.5, Y: 0.5},
	})
	for j := uint32(0); j < uint32(slices); j++ {
		if top {
			mesh.Indices = append(mesh.Indices, center, base+j+1, base+j)
		} else {
			mesh.Indices = append(mesh.Indices, center, base+j, base+j+1)
		}
	}
}
