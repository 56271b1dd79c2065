package geometry

import (
	"github.com/Faultbox/castle-waves/pkg/math"
)

// Sprite is one camera-facing billboard: its centre in object space and its
// width and height.
type Sprite struct {
	Center math.Vec3
	Size   math.Vec2
}

// PointSprites packs sprites into a point list, one vertex per sprite. The
// vertex carries the centre in Pos and the size in TexC; the geometry stage
// expands each point into a quad. Normal points up.
func PointSprites(sprites []Sprite) MeshData {
	vertices := make([]Vertex, len(sprites))
	indices := make([]uint32, len(sprites))
	for i, s := range sprites {
		vertices[i] = Vertex{Pos: s.Center, Normal: math.Vec3{Y: 1}, TexC: s.Size}
		indices[i] = uint32(i)
	}
	return MeshData{Vertices: vertices, Indices: indices}
}

// SpriteAt unpacks the sprite stored in vertex i of a PointSprites mesh.
func (m MeshData) SpriteAt(i int) Sprite {
	v := m.Vertices[i]
	return Sprite{Center: v.Pos, Size: v.TexC}
}
