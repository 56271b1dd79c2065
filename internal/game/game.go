// Package game drives the castle demo: it owns the scene, the wave field and
// the frame ring, and runs the per-frame update protocol against a device.
package game

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/castle-waves/internal/config"
	"github.com/Faultbox/castle-waves/internal/engine/camera"
	"github.com/Faultbox/castle-waves/internal/engine/debug"
	"github.com/Faultbox/castle-waves/internal/engine/frame"
	"github.com/Faultbox/castle-waves/internal/engine/geometry"
	"github.com/Faultbox/castle-waves/internal/engine/gpu"
	"github.com/Faultbox/castle-waves/internal/engine/scene"
	"github.com/Faultbox/castle-waves/internal/engine/water"
	"github.com/Faultbox/castle-waves/pkg/math"
)

// dragRadiansPerPixel turns mouse drag distance into camera rotation.
var dragRadiansPerPixel = math.Radians(0.25)

// Device executes recorded frame slots. The GL renderer and the headless
// device both implement it.
type Device interface {
	Timeline() gpu.Timeline
	UploadMeshes(meshes []scene.Mesh) error
	Submit(slot *frame.Slot) error
	Present() error
	Close() error
}

// Game is the main game instance.
type Game struct {
	cfg *config.Config
	log *zap.Logger
	dev Device

	scene     *scene.Scene
	ring      *frame.Ring
	waves     *water.Waves
	disturber *water.Disturber
	camera    *camera.Camera

	// order lists items opaque first, then alpha tested, then transparent.
	order    []scene.ItemID
	hasWaves bool

	updates <-chan *scene.Description
	shots   *debug.Screenshots

	width, height int
	totalTime     float32
	frames        uint64
	stats         frameStats
}

// New builds the scene from desc, uploads its meshes to dev and allocates the
// frame ring. The game takes ownership of dev.
func New(cfg *config.Config, desc *scene.Description, dev Device, log *zap.Logger) (*Game, error) {
	strategy, err := scene.ParseStrategy(cfg.Frames.DirtyStrategy)
	if err != nil {
		return nil, err
	}

	w := cfg.Waves
	waves, err := water.NewWaves(w.Rows, w.Cols, w.SpatialStep, w.TimeStep, w.Speed, w.Damping,
		water.WithStabilityCheck(w.CheckStability))
	if err != nil {
		return nil, fmt.Errorf("failed to create waves: %w", err)
	}
	grid := waveMesh(waves)

	sc, err := scene.New(desc, scene.Config{
		Strategy: strategy,
		Slots:    cfg.Frames.Count,
		Waves:    &grid,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	if err := dev.UploadMeshes(sc.Meshes); err != nil {
		return nil, fmt.Errorf("failed to upload meshes: %w", err)
	}

	g := &Game{
		cfg:       cfg,
		log:       log,
		dev:       dev,
		scene:     sc,
		waves:     waves,
		disturber: water.NewDisturber(waves, float32(w.DisturbInterval.Seconds()), w.MinMagnitude, w.MaxMagnitude, w.Seed),
		shots:     debug.NewScreenshots(cfg.Graphics.ScreenshotDir, "castle"),
		width:     cfg.Graphics.Width,
		height:    cfg.Graphics.Height,
	}
	_, g.hasWaves = sc.WavesItem()

	ringCfg := frame.Config{
		Slots:         cfg.Frames.Count,
		ObjectCount:   len(sc.Items),
		MaterialCount: len(sc.Materials),
	}
	if g.hasWaves {
		ringCfg.DynamicVertexCount = waves.VertexCount()
	}
	g.ring, err = frame.NewRing(ringCfg, dev.Timeline(), log.Named("frame"))
	if err != nil {
		return nil, fmt.Errorf("failed to create frame ring: %w", err)
	}

	g.order = make([]scene.ItemID, len(sc.Items))
	for i := range g.order {
		g.order[i] = scene.ItemID(i)
	}
	slices.SortStableFunc(g.order, func(a, b scene.ItemID) int {
		return int(sc.Item(a).Layer) - int(sc.Item(b).Layer)
	})

	g.camera = camera.New()
	g.camera.LockHeight = cfg.Camera.LockHeight
	g.camera.SetPosition(math.Vec3{X: cfg.Camera.Start[0], Y: cfg.Camera.Start[1], Z: cfg.Camera.Start[2]})
	g.SetViewport(g.width, g.height)

	log.Info("game initialized",
		zap.Int("items", len(sc.Items)),
		zap.Int("materials", len(sc.Materials)),
		zap.Int("meshes", len(sc.Meshes)),
		zap.Int("slots", g.ring.Len()),
		zap.String("dirtyStrategy", string(strategy)),
		zap.Bool("waves", g.hasWaves),
	)
	return g, nil
}

func waveMesh(w *water.Waves) geometry.MeshData {
	mesh := geometry.MeshData{
		Vertices: make([]geometry.Vertex, w.VertexCount()),
		Indices:  w.Indices(),
	}
	for i := range mesh.Vertices {
		mesh.Vertices[i] = w.Vertex(i)
	}
	return mesh
}

// Scene returns the render item tables.
func (g *Game) Scene() *scene.Scene { return g.scene }

// Ring returns the frame ring.
func (g *Game) Ring() *frame.Ring { return g.ring }

// Waves returns the simulated water surface.
func (g *Game) Waves() *water.Waves { return g.waves }

// Camera returns the viewer.
func (g *Game) Camera() *camera.Camera { return g.camera }

// Frames returns how many frames have been submitted.
func (g *Game) Frames() uint64 { return g.frames }

// SetUpdates installs a source of reloaded scene descriptions. Frame polls it
// without blocking.
func (g *Game) SetUpdates(updates <-chan *scene.Description) {
	g.updates = updates
}

// SetViewport updates the render target size and the camera lens.
func (g *Game) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	g.width, g.height = width, height
	g.camera.SetLens(math.Radians(g.cfg.Camera.FovDegrees), float32(width)/float32(height),
		g.cfg.Camera.Near, g.cfg.Camera.Far)
}

// Steer applies one frame of movement and mouse-look input. walk and strafe
// are in [-1, 1]; dx and dy are drag distances in pixels.
func (g *Game) Steer(walk, strafe float32, dx, dy int, dt float32) {
	if dx != 0 {
		g.camera.RotateY(-float32(dx) * dragRadiansPerPixel)
	}
	if dy != 0 {
		g.camera.Pitch(-float32(dy) * dragRadiansPerPixel)
	}
	if walk != 0 || strafe != 0 {
		step := g.cfg.Camera.Speed * dt
		g.camera.Move(walk*step, strafe*step, g.scene.Collides)
	}
}

// Frame runs one iteration of the update protocol: wait for the next slot,
// refresh whatever it holds stale, record the draws and submit them.
func (g *Game) Frame(dt float32) error {
	g.pollUpdates()

	slot, err := g.ring.Advance()
	if err != nil {
		return err
	}
	g.totalTime += dt

	g.scene.Animate(dt)
	g.writeObjects(slot)
	g.writeMaterials(slot)
	g.writePass(slot, dt)

	if g.hasWaves {
		g.disturber.Update(dt)
		g.waves.Update(dt)
		for i := 0; i < g.waves.VertexCount(); i++ {
			slot.Vertices.CopyData(i, g.waves.Vertex(i))
		}
	}

	for _, id := range g.order {
		slot.Commands.Record(g.scene.DrawCommand(id))
	}
	slot.Commands.Close()

	if err := g.dev.Submit(slot); err != nil {
		g.log.Error("submit failed", zap.Int("slot", slot.Index), zap.Error(err))
		return fmt.Errorf("submitting frame %d: %w", g.frames, err)
	}
	if err := g.ring.SubmitAndSignal(slot); err != nil {
		g.log.Error("signal failed", zap.Int("slot", slot.Index), zap.Error(err))
		return err
	}
	if err := g.dev.Present(); err != nil {
		return fmt.Errorf("presenting frame %d: %w", g.frames, err)
	}
	g.frames++
	return nil
}

func (g *Game) pollUpdates() {
	if g.updates == nil {
		return
	}
	select {
	case desc := <-g.updates:
		err := g.scene.Apply(desc)
		switch {
		case errors.Is(err, scene.ErrLayoutChanged):
			g.log.Warn("scene layout changed on disk, restart to apply", zap.Error(err))
		case err != nil:
			g.log.Warn("scene update rejected", zap.Error(err))
		default:
			g.log.Info("scene reloaded")
		}
	default:
	}
}

func (g *Game) writeObjects(slot *frame.Slot) {
	for i := range g.scene.Items {
		it := &g.scene.Items[i]
		if !it.Dirty.NeedsWrite(slot.Index) {
			continue
		}
		g.ring.WriteObjectConstants(slot, i, it.Constants())
		it.Dirty.Written(slot.Index)
	}
}

func (g *Game) writeMaterials(slot *frame.Slot) {
	for i := range g.scene.Materials {
		m := &g.scene.Materials[i]
		if !m.Dirty.NeedsWrite(slot.Index) {
			continue
		}
		g.ring.WriteMaterialConstants(slot, i, m.Constants())
		m.Dirty.Written(slot.Index)
	}
}

func (g *Game) writePass(slot *frame.Slot, dt float32) {
	view := g.camera.View()
	proj := g.camera.Proj()
	viewProj := proj.Mul(view)

	pc := frame.PassConstants{
		View:        view,
		InvView:     view.Inverse(),
		Proj:        proj,
		InvProj:     proj.Inverse(),
		ViewProj:    viewProj,
		InvViewProj: viewProj.Inverse(),
		EyePosW:     g.camera.Position(),
		RenderTargetSize: math.Vec2{
			X: float32(g.width),
			Y: float32(g.height),
		},
		InvRenderTargetSize: math.Vec2{
			X: 1 / float32(g.width),
			Y: 1 / float32(g.height),
		},
		NearZ:     g.camera.NearZ(),
		FarZ:      g.camera.FarZ(),
		TotalTime: g.totalTime,
		DeltaTime: dt,
	}
	g.scene.FillPass(&pc)
	g.ring.WritePassConstants(slot, pc)
}

// Close waits for the GPU to retire every slot, then releases the device.
func (g *Game) Close() error {
	g.log.Info("closing game",
		zap.Uint64("frames", g.frames),
		zap.Int("stalls", g.ring.Stalls()),
	)
	var err error
	if ferr := g.ring.Flush(); ferr != nil {
		g.log.Error("frame ring flush failed", zap.Error(ferr))
		err = multierr.Append(err, ferr)
	}
	return multierr.Append(err, g.dev.Close())
}

// frameStats logs frame rate once per second.
type frameStats struct {
	count int
	since time.Time
	worst time.Duration
}

// tick records one frame and returns the frame count of the last second once
// a second has passed.
func (s *frameStats) tick(log *zap.Logger, now time.Time, frameTime time.Duration, stalls int) (int, bool) {
	if s.since.IsZero() {
		s.since = now
	}
	s.count++
	s.worst = max(s.worst, frameTime)
	if now.Sub(s.since) < time.Second {
		return 0, false
	}
	fps := s.count
	log.Debug("fps",
		zap.Int("count", fps),
		zap.Duration("worst", s.worst),
		zap.Int("stalls", stalls),
	)
	s.count = 0
	s.worst = 0
	s.since = now
	return fps, true
}
