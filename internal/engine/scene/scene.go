package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/castle-waves/internal/engine/frame"
	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/pkg/math"
)

// ErrLayoutChanged is returned by Apply when the new description adds,
// removes, renames or reshapes entries. Such a change needs a rebuild.
var ErrLayoutChanged = errors.New("scene: layout changed")

// ItemID indexes Scene.Items. It doubles as the item's slot in the object
// constant buffer.
type ItemID int

// MaterialID indexes Scene.Materials and the material constant buffer.
type MaterialID int

// Item is one render item.
type Item struct {
	Name     string
	Shape    Shape
	Mesh     MeshID
	Material MaterialID
	Layer    frame.Layer

	World        math.Mat4
	TexTransform math.Mat4
	Bounds       geometry.AABB
	Solid        bool

	Dirty Tracker
}

// Constants returns the item's object constant record.
func (it *Item) Constants() frame.ObjectConstants {
	return frame.ObjectConstants{World: it.World, TexTransform: it.TexTransform}
}

// Material is one surface description.
type Material struct {
	Name          string
	DiffuseAlbedo math.Vec4
	FresnelR0     math.Vec3
	Roughness     float32

	// Scroll is the texture offset speed; Offset the current offset, kept
	// in [0,1).
	Scroll math.Vec2
	Offset math.Vec2

	Dirty Tracker
}

// Transform returns the texture transform for the current offset.
func (m *Material) Transform() math.Mat4 {
	return math.Translate(m.Offset.X, m.Offset.Y, 0)
}

// Constants returns the material constant record.
func (m *Material) Constants() frame.MaterialConstants {
	return frame.MaterialConstants{
		DiffuseAlbedo: m.DiffuseAlbedo,
		FresnelR0:     m.FresnelR0,
		Roughness:     m.Roughness,
		MatTransform:  m.Transform(),
	}
}

// Config controls how a Scene is built.
type Config struct {
	Strategy DirtyStrategy
	Slots    int

	// Waves is the initial water mesh. Required when the description has a
	// waves item.
	Waves *geometry.MeshData
}

// DefaultConfig returns the configuration for a three-slot ring.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyGeneration,
		Slots:    frame.DefaultSlotCount,
	}
}

// Scene is the arena of render items, materials and meshes.
type Scene struct {
	Items     []Item
	Materials []Material
	Meshes    []Mesh

	Ambient  math.Vec4
	FogColor math.Vec4
	FogStart float32
	FogRange float32

	// Lights holds directional lights first, then point lights.
	Lights         []frame.Light
	NumDirLights   int
	NumPointLights int

	config         Config
	itemByName     map[string]ItemID
	materialByName map[string]MaterialID
	meshByShape    map[Shape]MeshID
	waves          ItemID
	trees          []geometry.Sprite
}

// New builds a scene from a validated description.
func New(desc *Description, cfg Config) (*Scene, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if cfg.Slots <= 0 {
		cfg.Slots = frame.DefaultSlotCount
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyGeneration
	}

	s := &Scene{
		config:         cfg,
		itemByName:     make(map[string]ItemID),
		materialByName: make(map[string]MaterialID),
		meshByShape:    make(map[Shape]MeshID),
		waves:          -1,
	}
	if desc.Trees != nil {
		s.trees = desc.Trees.Sprites()
	}

	for _, md := range desc.Materials {
		s.materialByName[md.Name] = MaterialID(len(s.Materials))
		m := Material{Name: md.Name, Dirty: NewTracker(cfg.Strategy, cfg.Slots)}
		setMaterial(&m, md)
		s.Materials = append(s.Materials, m)
	}

	for _, id := range desc.expandItems() {
		shape := Shape(id.Shape)
		mesh, err := s.mesh(shape)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", id.Name, err)
		}
		layer, _ := ParseLayer(id.Layer)
		it := Item{
			Name:     id.Name,
			Shape:    shape,
			Mesh:     mesh,
			Material: s.materialByName[id.Material],
			Layer:    layer,
			Solid:    !id.NoCollide && shape != ShapeWaves,
			Dirty:    NewTracker(cfg.Strategy, cfg.Slots),
		}
		s.place(&it, id)

		itemID := ItemID(len(s.Items))
		if shape == ShapeWaves {
			s.waves = itemID
		}
		s.itemByName[id.Name] = itemID
		s.Items = append(s.Items, it)
	}

	s.setEnvironment(desc)
	return s, nil
}

func (s *Scene) mesh(shape Shape) (MeshID, error) {
	if id, ok := s.meshByShape[shape]; ok {
		return id, nil
	}
	var m Mesh
	switch {
	case shape == ShapeWaves:
		if s.config.Waves == nil {
			return 0, errors.New("scene: waves item without a wave grid")
		}
		m = Mesh{Shape: shape, Data: *s.config.Waves, Dynamic: true}
	case shape == ShapeTreeSprites:
		if len(s.trees) == 0 {
			return 0, errors.New("scene: tree sprites item without trees")
		}
		m = Mesh{Shape: shape, Data: geometry.PointSprites(s.trees), Points: true}
	default:
		gen, ok := generators[shape]
		if !ok {
			return 0, fmt.Errorf("%w %q", ErrUnknownShape, shape)
		}
		m = Mesh{Shape: shape, Data: gen()}
	}
	m.Bounds = m.Data.Bounds()

	id := MeshID(len(s.Meshes))
	s.Meshes = append(s.Meshes, m)
	s.meshByShape[shape] = id
	return id, nil
}

func (s *Scene) place(it *Item, id ItemDesc) {
	scale := vec3(id.Scale)
	if scale == (math.Vec3{}) {
		scale = math.Vec3{X: 1, Y: 1, Z: 1}
	}
	tex := id.TexScale
	if tex == [2]float32{} {
		tex = [2]float32{1, 1}
	}
	it.World = math.Compose(vec3(id.Translate), vec3(id.Rotate), scale)
	it.TexTransform = math.Scale(tex[0], tex[1], 1)
	it.Bounds = s.Meshes[it.Mesh].Bounds.Transform(it.World)
}

func setMaterial(m *Material, md MaterialDesc) {
	m.DiffuseAlbedo = vec4(md.DiffuseAlbedo)
	m.FresnelR0 = vec3(md.FresnelR0)
	m.Roughness = md.Roughness
	m.Scroll = math.Vec2{X: md.Scroll[0], Y: md.Scroll[1]}
}

func (s *Scene) setEnvironment(desc *Description) {
	s.Ambient = vec4(desc.Ambient)
	s.FogColor = vec4(desc.Fog.Color)
	s.FogStart = desc.Fog.Start
	s.FogRange = desc.Fog.Range

	s.Lights = s.Lights[:0]
	s.NumDirLights, s.NumPointLights = 0, 0
	for _, l := range desc.Lights {
		if l.Kind == "directional" {
			s.Lights = append(s.Lights, frame.Light{
				Strength:  vec3(l.Strength),
				Direction: vec3(l.Direction).Normalize(),
			})
			s.NumDirLights++
		}
	}
	for _, l := range desc.Lights {
		if l.Kind == "point" {
			s.Lights = append(s.Lights, frame.Light{
				Strength:     vec3(l.Strength),
				Position:     vec3(l.Position),
				FalloffStart: l.FalloffStart,
				FalloffEnd:   l.FalloffEnd,
			})
			s.NumPointLights++
		}
	}
}

// ItemByName resolves an item handle.
func (s *Scene) ItemByName(name string) (ItemID, bool) {
	id, ok := s.itemByName[name]
	return id, ok
}

// MaterialByName resolves a material handle.
func (s *Scene) MaterialByName(name string) (MaterialID, bool) {
	id, ok := s.materialByName[name]
	return id, ok
}

// Item returns the item for id.
func (s *Scene) Item(id ItemID) *Item {
	return &s.Items[id]
}

// Material returns the material for id.
func (s *Scene) Material(id MaterialID) *Material {
	return &s.Materials[id]
}

// Trees returns the billboard trees of the scene.
func (s *Scene) Trees() []geometry.Sprite {
	return s.trees
}

// WavesItem returns the item drawing the water surface, if any.
func (s *Scene) WavesItem() (ItemID, bool) {
	return s.waves, s.waves >= 0
}

// SetWorld moves an item and marks it dirty.
func (s *Scene) SetWorld(id ItemID, world math.Mat4) {
	it := &s.Items[id]
	it.World = world
	it.Bounds = s.Meshes[it.Mesh].Bounds.Transform(world)
	it.Dirty.Mark()
}

// SetTexTransform changes an item's texture transform and marks it dirty.
func (s *Scene) SetTexTransform(id ItemID, tex math.Mat4) {
	it := &s.Items[id]
	it.TexTransform = tex
	it.Dirty.Mark()
}

// Animate scrolls every material with a non-zero scroll speed and marks it
// dirty.
func (s *Scene) Animate(dt float32) {
	for i := range s.Materials {
		m := &s.Materials[i]
		if m.Scroll == (math.Vec2{}) {
			continue
		}
		m.Offset.X = wrapUnit(m.Offset.X + m.Scroll.X*dt)
		m.Offset.Y = wrapUnit(m.Offset.Y + m.Scroll.Y*dt)
		m.Dirty.Mark()
	}
}

func wrapUnit(v float32) float32 {
	for v >= 1 {
		v--
	}
	for v < 0 {
		v++
	}
	return v
}

// Apply updates transforms, material parameters and the environment from a
// new description of the same layout. Changed entries are marked dirty.
func (s *Scene) Apply(desc *Description) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	items := desc.expandItems()
	if len(items) != len(s.Items) || len(desc.Materials) != len(s.Materials) {
		return fmt.Errorf("%w: %d items, %d materials", ErrLayoutChanged, len(items), len(desc.Materials))
	}
	for i, md := range desc.Materials {
		if md.Name != s.Materials[i].Name {
			return fmt.Errorf("%w: material %d is %q, was %q", ErrLayoutChanged, i, md.Name, s.Materials[i].Name)
		}
	}
	var trees []geometry.Sprite
	if desc.Trees != nil {
		trees = desc.Trees.Sprites()
	}
	if !slices.Equal(trees, s.trees) {
		return fmt.Errorf("%w: %d trees, was %d", ErrLayoutChanged, len(trees), len(s.trees))
	}
	for i, id := range items {
		it := &s.Items[i]
		layer, _ := ParseLayer(id.Layer)
		if id.Name != it.Name || Shape(id.Shape) != it.Shape ||
			s.materialByName[id.Material] != it.Material || layer != it.Layer {
			return fmt.Errorf("%w: item %d (%q)", ErrLayoutChanged, i, id.Name)
		}
	}

	for i, md := range desc.Materials {
		m := &s.Materials[i]
		before := *m
		setMaterial(m, md)
		if m.DiffuseAlbedo != before.DiffuseAlbedo || m.FresnelR0 != before.FresnelR0 ||
			m.Roughness != before.Roughness || m.Scroll != before.Scroll {
			m.Dirty.Mark()
		}
	}
	for i, id := range items {
		it := &s.Items[i]
		world, tex := it.World, it.TexTransform
		s.place(it, id)
		it.Solid = !id.NoCollide && it.Shape != ShapeWaves
		if it.World != world || it.TexTransform != tex {
			it.Dirty.Mark()
		}
	}
	s.setEnvironment(desc)
	return nil
}

// Collides reports whether box overlaps any solid item.
func (s *Scene) Collides(box geometry.AABB) bool {
	for i := range s.Items {
		if s.Items[i].Solid && s.Items[i].Bounds.Intersects(box) {
			return true
		}
	}
	return false
}

// FillPass copies the lighting and fog environment into pc.
func (s *Scene) FillPass(pc *frame.PassConstants) {
	pc.AmbientLight = s.Ambient
	pc.FogColor = s.FogColor
	pc.FogStart = s.FogStart
	pc.FogRange = s.FogRange
	pc.NumDirLights = int32(s.NumDirLights)
	pc.NumPointLights = int32(s.NumPointLights)
	pc.Lights = [frame.MaxLights]frame.Light{}
	copy(pc.Lights[:], s.Lights)
}

// DrawCommand returns the draw for item id.
func (s *Scene) DrawCommand(id ItemID) frame.DrawCommand {
	it := &s.Items[id]
	mesh := &s.Meshes[it.Mesh]
	return frame.DrawCommand{
		Layer:         it.Layer,
		Mesh:          int(it.Mesh),
		Dynamic:       mesh.Dynamic,
		Points:        mesh.Points,
		ObjectIndex:   int(id),
		MaterialIndex: int(it.Material),
		IndexCount:    len(mesh.Data.Indices),
	}
}

func vec3(a [3]float32) math.Vec3 { return math.Vec3{X: a[0], Y: a[1], Z: a[2]} }
func vec4(a [4]float32) math.Vec4 { return math.Vec4{X: a[0], Y: a[1], Z: a[2], W: a[3]} }
