// Package scene holds the castle's render items and materials as arena
// tables loaded from a declarative description, and tracks which entries
// still have to be written into each frame slot.
package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/castle-waves/internal/engine/frame"
	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/pkg/math"
)

// TreesItem is the name of the item the trees section expands into.
const TreesItem = "trees"

//go:embed castle.yaml
var defaultCastle []byte

var (
	// ErrUnknownMaterial is returned when an item names a material the
	// description does not define.
	ErrUnknownMaterial = errors.New("scene: unknown material")

	// ErrUnknownShape is returned for an item shape with no generator.
	ErrUnknownShape = errors.New("scene: unknown shape")
)

// Format is a scene file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("scene: unsupported file extension %q", filepath.Ext(path))
	}
}

// Description is the authored form of a scene.
type Description struct {
	Ambient   [4]float32     `yaml:"ambient" toml:"ambient"`
	Fog       FogDesc        `yaml:"fog" toml:"fog"`
	Lights    []LightDesc    `yaml:"lights" toml:"lights"`
	Materials []MaterialDesc `yaml:"materials" toml:"materials"`
	Items     []ItemDesc     `yaml:"items" toml:"items"`
	Tilemap   *TilemapDesc   `yaml:"tilemap,omitempty" toml:"tilemap,omitempty"`
	Trees     *TreesDesc     `yaml:"trees,omitempty" toml:"trees,omitempty"`
}

// FogDesc configures linear distance fog.
type FogDesc struct {
	Color [4]float32 `yaml:"color" toml:"color"`
	Start float32    `yaml:"start" toml:"start"`
	Range float32    `yaml:"range" toml:"range"`
}

// LightDesc is a directional or point light.
type LightDesc struct {
	Kind         string     `yaml:"kind" toml:"kind"`
	Strength     [3]float32 `yaml:"strength" toml:"strength"`
	Direction    [3]float32 `yaml:"direction,omitempty" toml:"direction,omitempty"`
	Position     [3]float32 `yaml:"position,omitempty" toml:"position,omitempty"`
	FalloffStart float32    `yaml:"falloff_start,omitempty" toml:"falloff_start,omitempty"`
	FalloffEnd   float32    `yaml:"falloff_end,omitempty" toml:"falloff_end,omitempty"`
}

// MaterialDesc describes a surface. Scroll animates the texture offset in
// UV units per second.
type MaterialDesc struct {
	Name          string     `yaml:"name" toml:"name"`
	DiffuseAlbedo [4]float32 `yaml:"diffuse_albedo" toml:"diffuse_albedo"`
	FresnelR0     [3]float32 `yaml:"fresnel_r0" toml:"fresnel_r0"`
	Roughness     float32    `yaml:"roughness" toml:"roughness"`
	Scroll        [2]float32 `yaml:"scroll,omitempty" toml:"scroll,omitempty"`
}

// ItemDesc places one shape in the world. Rotation is in degrees. Zero
// scale and tex scale default to one.
type ItemDesc struct {
	Name      string     `yaml:"name" toml:"name"`
	Shape     string     `yaml:"shape" toml:"shape"`
	Material  string     `yaml:"material" toml:"material"`
	Layer     string     `yaml:"layer,omitempty" toml:"layer,omitempty"`
	Translate [3]float32 `yaml:"translate,omitempty" toml:"translate,omitempty"`
	Rotate    [3]float32 `yaml:"rotate,omitempty" toml:"rotate,omitempty"`
	Scale     [3]float32 `yaml:"scale,omitempty" toml:"scale,omitempty"`
	TexScale  [2]float32 `yaml:"tex_scale,omitempty" toml:"tex_scale,omitempty"`
	NoCollide bool       `yaml:"no_collide,omitempty" toml:"no_collide,omitempty"`
}

// TilemapDesc lays out a block of boxes from a character grid: every '1'
// becomes a box at Origin + (row*Cell, 0, col*Cell).
type TilemapDesc struct {
	Material string     `yaml:"material" toml:"material"`
	Layer    string     `yaml:"layer,omitempty" toml:"layer,omitempty"`
	Origin   [3]float32 `yaml:"origin" toml:"origin"`
	Cell     float32    `yaml:"cell" toml:"cell"`
	Scale    [3]float32 `yaml:"scale" toml:"scale"`
	Rows     []string   `yaml:"rows" toml:"rows"`
}

// TreesDesc scatters billboard trees over groves. The same seed places the
// same trees.
type TreesDesc struct {
	Material string      `yaml:"material" toml:"material"`
	Size     [2]float32  `yaml:"size" toml:"size"`
	Seed     uint64      `yaml:"seed" toml:"seed"`
	Groves   []GroveDesc `yaml:"groves" toml:"groves"`
}

// GroveDesc places Count tree centres uniformly inside the box [Min, Max].
type GroveDesc struct {
	Count int        `yaml:"count" toml:"count"`
	Min   [3]float32 `yaml:"min" toml:"min"`
	Max   [3]float32 `yaml:"max" toml:"max"`
}

// Sprites returns the billboards of every grove, in grove order.
func (t *TreesDesc) Sprites() []geometry.Sprite {
	rng := rand.New(rand.NewSource(t.Seed))
	size := math.Vec2{X: t.Size[0], Y: t.Size[1]}
	var sprites []geometry.Sprite
	for _, g := range t.Groves {
		for i := 0; i < g.Count; i++ {
			var c [3]float32
			for k := range c {
				c[k] = g.Min[k] + rng.Float32()*(g.Max[k]-g.Min[k])
			}
			sprites = append(sprites, geometry.Sprite{Center: vec3(c), Size: size})
		}
	}
	return sprites
}

func (t *TreesDesc) validate() error {
	if t.Size[0] <= 0 || t.Size[1] <= 0 {
		return fmt.Errorf("scene: tree size %v must be positive", t.Size)
	}
	total := 0
	for i, g := range t.Groves {
		if g.Count <= 0 {
			return fmt.Errorf("scene: grove %d has %d trees", i, g.Count)
		}
		for k := 0; k < 3; k++ {
			if g.Min[k] > g.Max[k] {
				return fmt.Errorf("scene: grove %d min %v exceeds max %v", i, g.Min, g.Max)
			}
		}
		total += g.Count
	}
	if total == 0 {
		return errors.New("scene: trees section without groves")
	}
	return nil
}

// Default returns the built-in castle scene.
func Default() (*Description, error) {
	return Parse(defaultCastle, FormatYAML)
}

// Load reads a scene file, choosing the decoder from its extension.
func Load(path string) (*Description, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	desc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// Parse decodes and validates a description.
func Parse(data []byte, format Format) (*Description, error) {
	var desc Description
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &desc)
	default:
		err = yaml.Unmarshal(data, &desc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Validate checks references and limits without building anything.
func (d *Description) Validate() error {
	materials := make(map[string]bool, len(d.Materials))
	for _, m := range d.Materials {
		if m.Name == "" {
			return errors.New("scene: material without a name")
		}
		if materials[m.Name] {
			return fmt.Errorf("scene: duplicate material %q", m.Name)
		}
		materials[m.Name] = true
	}

	for _, it := range d.Items {
		if Shape(it.Shape) == ShapeTreeSprites {
			return fmt.Errorf("scene: item %q: %s shapes come from the trees section", it.Name, ShapeTreeSprites)
		}
	}
	if d.Trees != nil {
		if err := d.Trees.validate(); err != nil {
			return err
		}
	}

	names := make(map[string]bool, len(d.Items))
	waves := 0
	for _, it := range d.expandItems() {
		if names[it.Name] {
			return fmt.Errorf("scene: duplicate item %q", it.Name)
		}
		names[it.Name] = true
		if !materials[it.Material] {
			return fmt.Errorf("%w %q (item %q)", ErrUnknownMaterial, it.Material, it.Name)
		}
		shape := Shape(it.Shape)
		if !shape.Valid() {
			return fmt.Errorf("%w %q (item %q)", ErrUnknownShape, it.Shape, it.Name)
		}
		if shape == ShapeWaves {
			waves++
		}
		layer, err := ParseLayer(it.Layer)
		if err != nil {
			return fmt.Errorf("item %q: %w", it.Name, err)
		}
		if (layer == frame.LayerTreeSprites) != (shape == ShapeTreeSprites) {
			return fmt.Errorf("scene: item %q: layer %s only holds tree sprites", it.Name, frame.LayerTreeSprites)
		}
	}
	if waves > 1 {
		return fmt.Errorf("scene: %d waves items, at most one is supported", waves)
	}

	if len(d.Lights) > frame.MaxLights {
		return fmt.Errorf("scene: %d lights, at most %d", len(d.Lights), frame.MaxLights)
	}
	for i, l := range d.Lights {
		if l.Kind != "directional" && l.Kind != "point" {
			return fmt.Errorf("scene: light %d has unknown kind %q", i, l.Kind)
		}
	}
	return nil
}

// expandItems returns the authored items followed by the tilemap boxes and
// the trees item.
func (d *Description) expandItems() []ItemDesc {
	if d.Tilemap == nil && d.Trees == nil {
		return d.Items
	}
	items := append([]ItemDesc(nil), d.Items...)
	if d.Tilemap != nil {
		items = append(items, d.Tilemap.items()...)
	}
	if d.Trees != nil {
		items = append(items, ItemDesc{
			Name:      TreesItem,
			Shape:     string(ShapeTreeSprites),
			Material:  d.Trees.Material,
			Layer:     frame.LayerTreeSprites.String(),
			NoCollide: true,
		})
	}
	return items
}

func (tm *TilemapDesc) items() []ItemDesc {
	var items []ItemDesc
	for r, row := range tm.Rows {
		for c, key := range row {
			if key != '1' {
				continue
			}
			items = append(items, ItemDesc{
				Name:     fmt.Sprintf("tile_%d_%d", r, c),
				Shape:    string(ShapeBox),
				Material: tm.Material,
				Layer:    tm.Layer,
				Translate: [3]float32{
					tm.Origin[0] + float32(r)*tm.Cell,
					tm.Origin[1],
					tm.Origin[2] + float32(c)*tm.Cell,
				},
				Scale: tm.Scale,
			})
		}
	}
	return items
}

// ParseLayer maps a scene-file layer name to a draw layer. Empty means
// opaque.
func ParseLayer(name string) (frame.Layer, error) {
	switch name {
	case "", "opaque":
		return frame.LayerOpaque, nil
	case "alpha_tested":
		return frame.LayerAlphaTested, nil
	case "tree_sprites":
		return frame.LayerTreeSprites, nil
	case "transparent":
		return frame.LayerTransparent, nil
	default:
		return 0, fmt.Errorf("scene: unknown layer %q", name)
	}
}
