package scene

import (
	"github.com/Faultbox/castle-waves/internal/engine/geometry"
)

// Shape names a mesh generator. Items size shapes through their scale, so
// every generator builds a unit-sized mesh.
type Shape string

const (
	ShapeBox      Shape = "box"
	ShapeGrid     Shape = "grid"
	ShapeLand     Shape = "land"
	ShapeSphere   Shape = "sphere"
	ShapeCylinder Shape = "cylinder"
	ShapeCone     Shape = "cone"
	ShapePyramid  Shape = "pyramid"
	ShapeWedge    Shape = "wedge"
	ShapePrism    Shape = "prism"
	ShapeDiamond  Shape = "diamond"
	ShapeTorus    Shape = "torus"

	// ShapeWaves is the simulated water surface. Its vertices live in the
	// frame slots and change every frame.
	ShapeWaves Shape = "waves"

	// ShapeTreeSprites is the point list of billboard trees built from the
	// description's trees section.
	ShapeTreeSprites Shape = "tree_sprites"
)

var generators = map[Shape]func() geometry.MeshData{
	ShapeBox:      func() geometry.MeshData { return geometry.Box(1, 1, 1) },
	ShapeGrid:     func() geometry.MeshData { return geometry.Grid(1, 1, 41, 41) },
	ShapeLand:     func() geometry.MeshData { return geometry.Grid(160, 160, 50, 50) },
	ShapeSphere:   func() geometry.MeshData { return geometry.Sphere(0.5, 20, 20) },
	ShapeCylinder: func() geometry.MeshData { return geometry.Cylinder(1, 1, 1, 20, 20) },
	ShapeCone:     func() geometry.MeshData { return geometry.Cone(1, 1, 20, 1) },
	ShapePyramid:  func() geometry.MeshData { return geometry.Pyramid(1, 1, 1) },
	ShapeWedge:    func() geometry.MeshData { return geometry.Wedge(1, 1, 1) },
	ShapePrism:    func() geometry.MeshData { return geometry.Prism(1, 1, 1) },
	ShapeDiamond:  func() geometry.MeshData { return geometry.Diamond(1, 1, 1) },
	ShapeTorus:    func() geometry.MeshData { return geometry.Torus(1, 0.5, 50, 50) },
}

// Valid reports whether s names a known shape.
func (s Shape) Valid() bool {
	if s == ShapeWaves || s == ShapeTreeSprites {
		return true
	}
	_, ok := generators[s]
	return ok
}

// MeshID indexes Scene.Meshes.
type MeshID int

// Mesh is one shape's geometry, shared by every item of that shape.
type Mesh struct {
	Shape  Shape
	Data   geometry.MeshData
	Bounds geometry.AABB

	// Dynamic meshes take their vertices from the frame slot; Data holds
	// the indices and the initial vertices.
	Dynamic bool

	// Points meshes are drawn as point lists, one billboard per vertex.
	Points bool
}
