package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// HeadlessTimeStep is the simulated frame time of a headless run.
const HeadlessTimeStep = float32(1.0 / 60.0)

// WindowTitle is the base title of the demo window.
const WindowTitle = "Castle Waves"

// Surface is the window the interactive loop draws into.
type Surface interface {
	// GetSize returns the drawable size in pixels.
	GetSize() (int, int)
	SetTitle(title string)
}

// Controls is the per-frame input the interactive loop reads.
// *input.Input implements it.
type Controls interface {
	// Update polls pending events and reports whether the window was closed.
	Update() bool
	QuitRequested() bool
	Resized() bool
	ScreenshotRequested() bool
	Movement() (walk, strafe float32)
	Drag() (dx, dy int)
}

// resizer is implemented by devices that own a viewport.
type resizer interface {
	Resize(width, height int)
}

// capturer is implemented by devices that can read back a presented frame.
type capturer interface {
	CaptureNext(fn func(pixels []byte, width, height int))
}

// RunWindow runs the interactive loop until the window is closed, Escape is
// pressed, ctx is cancelled or a frame fails.
func (g *Game) RunWindow(ctx context.Context, win Surface, in Controls) error {
	var frameLimit time.Duration
	if g.cfg.Graphics.FPSLimit > 0 {
		frameLimit = time.Second / time.Duration(g.cfg.Graphics.FPSLimit)
	}

	g.resize(win.GetSize())
	lastTime := time.Now()

	g.log.Info("starting game loop")

	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		if in.Update() || in.QuitRequested() {
			break
		}
		if in.Resized() {
			g.resize(win.GetSize())
		}
		if in.ScreenshotRequested() {
			g.requestScreenshot()
		}

		// 2. Move the viewer
		walk, strafe := in.Movement()
		dx, dy := in.Drag()
		g.Steer(walk, strafe, dx, dy, float32(dt.Seconds()))

		// 3. Update, record and present
		if err := g.Frame(float32(dt.Seconds())); err != nil {
			return fmt.Errorf("frame error: %w", err)
		}

		frameTime := time.Since(now)
		if fps, ok := g.stats.tick(g.log, time.Now(), frameTime, g.ring.Stalls()); ok {
			win.SetTitle(fmt.Sprintf("%s - %d fps", WindowTitle, fps))
		}

		if frameLimit > 0 && frameTime < frameLimit {
			time.Sleep(frameLimit - frameTime)
		}
	}

	g.log.Info("game loop stopped", zap.Uint64("frames", g.frames))
	return nil
}

func (g *Game) resize(width, height int) {
	g.SetViewport(width, height)
	if r, ok := g.dev.(resizer); ok {
		r.Resize(width, height)
	}
}

func (g *Game) requestScreenshot() {
	c, ok := g.dev.(capturer)
	if !ok {
		g.log.Warn("device cannot capture screenshots")
		return
	}
	c.CaptureNext(func(pixels []byte, width, height int) {
		name, err := g.shots.Save(pixels, width, height)
		if err != nil {
			g.log.Warn("screenshot failed", zap.Error(err))
			return
		}
		g.log.Info("screenshot saved", zap.String("path", name))
	})
}

// RunHeadless runs frames iterations with a fixed time step, or until ctx is
// cancelled.
func (g *Game) RunHeadless(ctx context.Context, frames int) error {
	g.log.Info("starting headless run", zap.Int("frames", frames))
	start := time.Now()

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			g.log.Info("headless run interrupted", zap.Int("frame", i))
			return nil
		}
		frameStart := time.Now()
		if err := g.Frame(HeadlessTimeStep); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		g.stats.tick(g.log, time.Now(), time.Since(frameStart), g.ring.Stalls())
	}

	g.log.Info("headless run finished",
		zap.Int("frames", frames),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stalls", g.ring.Stalls()),
		zap.Uint64("waveSteps", g.waves.Steps()),
	)
	return nil
}
