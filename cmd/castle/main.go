// Package main is the entry point for the castle waves demo.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/castle-waves/internal/config"
	"github.com/Faultbox/castle-waves/internal/engine/headless"
	"github.com/Faultbox/castle-waves/internal/engine/input"
	"github.com/Faultbox/castle-waves/internal/engine/renderer"
	"github.com/Faultbox/castle-waves/internal/engine/scene"
	"github.com/Faultbox/castle-waves/internal/engine/window"
	"github.com/Faultbox/castle-waves/internal/game"
	"github.com/Faultbox/castle-waves/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Castle Waves ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("castle error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("castle closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	desc, err := loadScene(cfg.Scene.Path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	var updates <-chan *scene.Description
	if cfg.Scene.Watch && cfg.Scene.Path != "" {
		w, err := scene.NewWatcher(cfg.Scene.Path, logger.Named("scene"))
		if err != nil {
			return err
		}
		updates = w.Updates()
		eg.Go(func() error { return w.Run(ctx) })
	}

	// The frame loop stays on the main goroutine, which owns the GL context.
	loopErr := func() error {
		if cfg.Headless.Enabled {
			return runHeadless(ctx, cfg, desc, updates)
		}
		return runWindow(ctx, cfg, desc, updates)
	}()

	cancel()
	if err := eg.Wait(); err != nil && loopErr == nil {
		return err
	}
	return loopErr
}

func loadScene(path string) (*scene.Description, error) {
	if path == "" {
		logger.Info("using built-in castle scene")
		return scene.Default()
	}
	desc, err := scene.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	logger.Info("scene loaded", zap.String("path", path), zap.Int("items", len(desc.Items)))
	return desc, nil
}

func runHeadless(ctx context.Context, cfg *config.Config, desc *scene.Description, updates <-chan *scene.Description) (err error) {
	dev := headless.New(cfg.Headless.GPULatency, logger.Named("headless"))
	g, err := game.New(cfg, desc, dev, logger.Named("game"))
	if err != nil {
		dev.Close()
		return fmt.Errorf("failed to create game: %w", err)
	}
	defer func() {
		if cerr := g.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	g.SetUpdates(updates)

	if err := g.RunHeadless(ctx, cfg.Headless.Frames); err != nil {
		return err
	}
	logger.Info("headless summary",
		zap.Uint64("submitted", g.Frames()),
		zap.Uint64("executed", dev.Executed()),
		zap.Uint64("draws", dev.Draws()),
		zap.Int("stalls", g.Ring().Stalls()),
	)
	return nil
}

func runWindow(ctx context.Context, cfg *config.Config, desc *scene.Description, updates <-chan *scene.Description) (err error) {
	// Create window (this also creates OpenGL context)
	win, err := window.New(window.Config{
		Title:      game.WindowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, logger.Named("window"))
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := win.GetSize()
	r, err := renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: desc.Fog.Color,
	}, win.SwapBuffers, logger.Named("renderer"))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	g, err := game.New(cfg, desc, r, logger.Named("game"))
	if err != nil {
		r.Close()
		return fmt.Errorf("failed to create game: %w", err)
	}
	defer func() {
		if cerr := g.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	g.SetUpdates(updates)

	return g.RunWindow(ctx, win, input.New())
}
