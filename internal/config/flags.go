package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagHeadless   = flag.Bool("headless", false, "Run without a window on a simulated GPU")
	flagFrames     = flag.Int("frames", 0, "Number of frames to run headless")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagScene      = flag.String("scene", "", "Scene description file (.yaml or .toml)")
	flagSeed       = flag.Uint64("seed", 0, "Seed for wave disturbances")
	flagWatch      = flag.Bool("watch", false, "Reload the scene file when it changes")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagHeadless {
		cfg.Headless.Enabled = true
	}
	if *flagFrames > 0 {
		cfg.Headless.Frames = *flagFrames
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagSeed != 0 {
		cfg.Waves.Seed = *flagSeed
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
}
