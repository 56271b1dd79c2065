// Package config handles castle demo configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/castle-waves/internal/logger"
)

// Config holds all demo settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Frames   FramesConfig   `yaml:"frames"`
	Waves    WavesConfig    `yaml:"waves"`
	Camera   CameraConfig   `yaml:"camera"`
	Scene    SceneConfig    `yaml:"scene"`
	Headless HeadlessConfig `yaml:"headless"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Fullscreen    bool   `yaml:"fullscreen"`
	VSync         bool   `yaml:"vsync"`
	FPSLimit      int    `yaml:"fps_limit"`
	ScreenshotDir string `yaml:"screenshot_dir"` // F12 captures land here
}

// FramesConfig sizes the frame resource ring.
type FramesConfig struct {
	Count         int    `yaml:"count"`
	DirtyStrategy string `yaml:"dirty_strategy"` // countdown or generation
}

// WavesConfig holds the wave simulation parameters.
type WavesConfig struct {
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	SpatialStep float32 `yaml:"spatial_step"`
	TimeStep    float32 `yaml:"time_step"`
	Speed       float32 `yaml:"speed"`
	Damping     float32 `yaml:"damping"`

	DisturbInterval time.Duration `yaml:"disturb_interval"`
	MinMagnitude    float32       `yaml:"min_magnitude"`
	MaxMagnitude    float32       `yaml:"max_magnitude"`
	Seed            uint64        `yaml:"seed"`

	CheckStability bool `yaml:"check_stability"`
}

// CameraConfig holds the first-person camera settings.
type CameraConfig struct {
	FovDegrees float32    `yaml:"fov"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	Speed      float32    `yaml:"speed"`       // world units per second
	LockHeight bool       `yaml:"lock_height"` // pin the eye above the ground
	Start      [3]float32 `yaml:"start"`
}

// SceneConfig selects the scene description.
type SceneConfig struct {
	Path  string `yaml:"path"` // empty uses the built-in castle
	Watch bool   `yaml:"watch"`
}

// HeadlessConfig runs the frame loop without a window.
type HeadlessConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Frames     int           `yaml:"frames"`
	GPULatency time.Duration `yaml:"gpu_latency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoggerOptions converts the logging section for logger.Init.
func (l LoggingConfig) LoggerOptions() logger.Options {
	return logger.Options{
		Level:   l.Level,
		Format:  l.Format,
		Console: true,
		File: logger.FileConfig{
			Path:       l.LogFile,
			MaxSizeMB:  l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAgeDays: l.MaxAgeDays,
			Compress:   l.Compress,
		},
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			FPSLimit:      0,
			ScreenshotDir: "screenshots",
		},
		Frames: FramesConfig{
			Count:         3,
			DirtyStrategy: "generation",
		},
		Waves: WavesConfig{
			Rows:            128,
			Cols:            128,
			SpatialStep:     1.0,
			TimeStep:        0.03,
			Speed:           4.0,
			Damping:         0.2,
			DisturbInterval: 250 * time.Millisecond,
			MinMagnitude:    0.2,
			MaxMagnitude:    0.5,
			Seed:            1,
			CheckStability:  true,
		},
		Camera: CameraConfig{
			FovDegrees: 45,
			Near:       1,
			Far:        1000,
			Speed:      10,
			LockHeight: true,
			Start:      [3]float32{0, 2, -45},
		},
		Scene: SceneConfig{
			Path:  "",
			Watch: false,
		},
		Headless: HeadlessConfig{
			Enabled:    false,
			Frames:     600,
			GPULatency: 2 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate rejects settings the engine cannot start with.
func (c *Config) Validate() error {
	if c.Frames.Count < 2 {
		return fmt.Errorf("frames.count must be at least 2, got %d", c.Frames.Count)
	}
	switch c.Frames.DirtyStrategy {
	case "", "countdown", "generation":
	default:
		return fmt.Errorf("frames.dirty_strategy: unknown strategy %q", c.Frames.DirtyStrategy)
	}
	if c.Waves.Rows < 3 || c.Waves.Cols < 3 {
		return fmt.Errorf("waves grid must be at least 3x3, got %dx%d", c.Waves.Rows, c.Waves.Cols)
	}
	if c.Waves.MinMagnitude > c.Waves.MaxMagnitude {
		return fmt.Errorf("waves.min_magnitude %g exceeds max_magnitude %g", c.Waves.MinMagnitude, c.Waves.MaxMagnitude)
	}
	if !c.Headless.Enabled && (c.Graphics.Width <= 0 || c.Graphics.Height <= 0) {
		return fmt.Errorf("graphics size must be positive, got %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Headless.Enabled && c.Headless.Frames <= 0 {
		return fmt.Errorf("headless.frames must be positive, got %d", c.Headless.Frames)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
