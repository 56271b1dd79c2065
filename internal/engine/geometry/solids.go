package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/castle-waves/pkg/math"
)

// Cone builds a cone of the given base radius and height along Y.
func Cone(radius, height float32, slices, stacks int) MeshData {
	return Cylinder(radius, 0, height, slices, stacks)
}

// Pyramid builds a square-based pyramid centred at the origin with its apex
// on +Y.
func Pyramid(width, depth, height float32) MeshData {
	hw, hd, hh := 0.5*width, 0.5*depth, 0.5*height
	apex := math.Vec3{Y: hh}
	base := [4]math.Vec3{
		{X: -hw, Y: -hh, Z: -hd},
		{X: hw, Y: -hh, Z: -hd},
		{X: hw, Y: -hh, Z: hd},
		{X: -hw, Y: -hh, Z: hd},
	}
	return solid([][]math.Vec3{
		{base[0], base[1], apex},
		{base[1], base[2], apex},
		{base[2], base[3], apex},
		{base[3], base[0], apex},
		{base[0], base[1], base[2], base[3]},
	})
}

// Wedge builds a ramp: full-size bottom and back faces, with a slope running
// from the front bottom edge up to the back top edge.
func Wedge(width, height, depth float32) MeshData {
	hw, hh, hd := 0.5*width, 0.5*height, 0.5*depth
	fl := math.Vec3{X: -hw, Y: -hh, Z: -hd}
	fr := math.Vec3{X: hw, Y: -hh, Z: -hd}
	bl := math.Vec3{X: -hw, Y: -hh, Z: hd}
	br := math.Vec3{X: hw, Y: -hh, Z: hd}
	tl := math.Vec3{X: -hw, Y: hh, Z: hd}
	tr := math.Vec3{X: hw, Y: hh, Z: hd}
	return solid([][]math.Vec3{
		{fl, fr, br, bl},
		{bl, br, tr, tl},
		{fl, fr, tr, tl},
		{fl, bl, tl},
		{fr, br, tr},
	})
}

// Prism builds a triangular prism: a triangle in the XY plane, apex up,
// extruded along Z.
func Prism(width, height, depth float32) MeshData {
	hw, hh, hd := 0.5*width, 0.5*height, 0.5*depth
	var front, back [3]math.Vec3
	for k, p := range [3]math.Vec3{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {Y: hh}} {
		front[k] = math.Vec3{X: p.X, Y: p.Y, Z: -hd}
		back[k] = math.Vec3{X: p.X, Y: p.Y, Z: hd}
	}
	return solid([][]math.Vec3{
		front[:],
		back[:],
		{front[0], front[1], back[1], back[0]},
		{front[1], front[2], back[2], back[1]},
		{front[2], front[0], back[0], back[2]},
	})
}

// Diamond builds an octahedron with its six tips on the axes.
func Diamond(width, height, depth float32) MeshData {
	hw, hh, hd := 0.5*width, 0.5*height, 0.5*depth
	top := math.Vec3{Y: hh}
	bottom := math.Vec3{Y: -hh}
	ring := [4]math.Vec3{{X: hw}, {Z: hd}, {X: -hw}, {Z: -hd}}

	faces := make([][]math.Vec3, 0, 8)
	for k := range ring {
		a, b := ring[k], ring[(k+1)%4]
		faces = append(faces, []math.Vec3{a, b, top}, []math.Vec3{a, b, bottom})
	}
	return solid(faces)
}

// Torus builds a ring around Y. majorRadius is the distance from the centre
// to the middle of the tube.
func Torus(majorRadius, minorRadius float32, slices, stacks int) MeshData {
	vertices := make([]Vertex, 0, (stacks+1)*(slices+1))
	for i := 0; i <= stacks; i++ {
		phi := float32(i) * 2 * math32.Pi / float32(stacks)
		sinPhi, cosPhi := math32.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := float32(j) * 2 * math32.Pi / float32(slices)
			sinTheta, cosTheta := math32.Sincos(theta)
			ring := majorRadius + minorRadius*cosPhi
			vertices = append(vertices, Vertex{
				Pos:    math.Vec3{X: ring * cosTheta, Y: -minorRadius * sinPhi, Z: ring * sinTheta},
				Normal: math.Vec3{X: cosPhi * cosTheta, Y: -sinPhi, Z: cosPhi * sinTheta},
				TexC:   math.Vec2{X: float32(j) / float32(slices), Y: float32(i) / float32(stacks)},
			})
		}
	}
	return MeshData{Vertices: vertices, Indices: GridIndices(stacks+1, slices+1)}
}

var (
	triangleUV = []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0.5, Y: 0}}
	quadUV     = []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
)

// solid builds a flat-shaded convex polyhedron from planar faces. Each face
// gets its own vertices and is wound to face away from the centroid.
func solid(faces [][]math.Vec3) MeshData {
	var centroid math.Vec3
	var count int
	for _, f := range faces {
		for _, p := range f {
			centroid = centroid.Add(p)
			count++
		}
	}
	centroid = centroid.Scale(1 / float32(count))

	var mesh MeshData
	for _, f := range faces {
		pts := append([]math.Vec3(nil), f...)
		n := pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Normalize()

		var center math.Vec3
		for _, p := range pts {
			center = center.Add(p)
		}
		center = center.Scale(1 / float32(len(pts)))
		if n.Dot(center.Sub(centroid)) < 0 {
			for a, b := 0, len(pts)-1; a < b; a, b = a+1, b-1 {
				pts[a], pts[b] = pts[b], pts[a]
			}
			n = n.Scale(-1)
		}

		uv := quadUV
		if len(pts) == 3 {
			uv = triangleUV
		}
		base := uint32(len(mesh.Vertices))
		for k, p := range pts {
			mesh.Vertices = append(mesh.Vertices, Vertex{Pos: p, Normal: n, TexC: uv[k%len(uv)]})
		}
		for k := uint32(1); k+1 < uint32(len(pts)); k++ {
			mesh.Indices = append(mesh.Indices, base, base+k, base+k+1)
		}
	}
	return mesh
}
