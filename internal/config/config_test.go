package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.ScreenshotDir != "screenshots" {
		t.Errorf("expected screenshot dir screenshots, got %q", cfg.Graphics.ScreenshotDir)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}

	if cfg.Frames.Count != 3 {
		t.Errorf("expected 3 frame slots, got %d", cfg.Frames.Count)
	}
	if cfg.Frames.DirtyStrategy != "generation" {
		t.Errorf("expected generation strategy, got %s", cfg.Frames.DirtyStrategy)
	}

	if cfg.Waves.Rows != 128 || cfg.Waves.Cols != 128 {
		t.Errorf("expected 128x128 wave grid, got %dx%d", cfg.Waves.Rows, cfg.Waves.Cols)
	}
	if cfg.Waves.DisturbInterval != 250*time.Millisecond {
		t.Errorf("expected disturb interval 250ms, got %v", cfg.Waves.DisturbInterval)
	}
	if !cfg.Waves.CheckStability {
		t.Error("expected stability check to be on by default")
	}

	if !cfg.Camera.LockHeight {
		t.Error("expected camera height lock by default")
	}
	if cfg.Headless.Enabled {
		t.Error("expected headless to be off by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one frame slot", func(c *Config) { c.Frames.Count = 1 }},
		{"unknown strategy", func(c *Config) { c.Frames.DirtyStrategy = "eager" }},
		{"tiny grid", func(c *Config) { c.Waves.Rows = 2 }},
		{"inverted magnitudes", func(c *Config) { c.Waves.MinMagnitude = 1; c.Waves.MaxMagnitude = 0.5 }},
		{"zero window", func(c *Config) { c.Graphics.Width = 0 }},
		{"headless without frames", func(c *Config) { c.Headless.Enabled = true; c.Headless.Frames = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fps_limit: 144

frames:
  count: 2
  dirty_strategy: countdown

waves:
  rows: 64
  cols: 64
  disturb_interval: 500ms
  seed: 42

camera:
  fov: 60
  start: [1, 2, 3]

scene:
  path: castle.toml
  watch: true

headless:
  enabled: true
  frames: 120
  gpu_latency: 5ms

logging:
  level: "debug"
  format: json
  log_file: "castle.log"
  max_size_mb: 5
  compress: false
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.FPSLimit != 144 {
		t.Errorf("expected fps limit 144, got %d", cfg.Graphics.FPSLimit)
	}
	if cfg.Frames.Count != 2 || cfg.Frames.DirtyStrategy != "countdown" {
		t.Errorf("unexpected frames config %+v", cfg.Frames)
	}
	if cfg.Waves.Rows != 64 || cfg.Waves.Seed != 42 {
		t.Errorf("unexpected waves config %+v", cfg.Waves)
	}
	if cfg.Waves.DisturbInterval != 500*time.Millisecond {
		t.Errorf("expected disturb interval 500ms, got %v", cfg.Waves.DisturbInterval)
	}
	if cfg.Waves.Speed != 4.0 {
		t.Errorf("expected unset speed to keep default 4, got %f", cfg.Waves.Speed)
	}
	if cfg.Camera.FovDegrees != 60 || cfg.Camera.Start != [3]float32{1, 2, 3} {
		t.Errorf("unexpected camera config %+v", cfg.Camera)
	}
	if cfg.Scene.Path != "castle.toml" || !cfg.Scene.Watch {
		t.Errorf("unexpected scene config %+v", cfg.Scene)
	}
	if !cfg.Headless.Enabled || cfg.Headless.Frames != 120 || cfg.Headless.GPULatency != 5*time.Millisecond {
		t.Errorf("unexpected headless config %+v", cfg.Headless)
	}
	if cfg.Logging.LogFile != "castle.log" {
		t.Errorf("expected log file 'castle.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Logging.Format)
	}
	opts := cfg.Logging.LoggerOptions()
	if opts.File.MaxSizeMB != 5 || opts.File.Compress {
		t.Errorf("expected 5MB uncompressed rotation, got %+v", opts.File)
	}
	if opts.File.MaxBackups != 3 {
		t.Errorf("expected default max backups 3, got %d", opts.File.MaxBackups)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "typo.yaml")

	if err := os.WriteFile(configPath, []byte("waves:\n  dampening: 0.5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for unknown key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")

	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should keep defaults, got %v", err)
	}
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected default width, got %d", cfg.Graphics.Width)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Waves.Seed = 7
	cfg.Scene.Path = "moat.yaml"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Waves.Seed != 7 || loaded.Scene.Path != "moat.yaml" {
		t.Errorf("saved values not restored: seed %d, scene %q", loaded.Waves.Seed, loaded.Scene.Path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "headless flags",
			setup: func() {
				*flagHeadless = true
				*flagFrames = 90
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Headless.Enabled {
					t.Error("expected headless to be enabled")
				}
				if cfg.Headless.Frames != 90 {
					t.Errorf("expected 90 frames, got %d", cfg.Headless.Frames)
				}
			},
			teardown: func() {
				*flagHeadless = false
				*flagFrames = 0
			},
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Graphics.Width)
				}
				if cfg.Graphics.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name: "scene flags",
			setup: func() {
				*flagScene = "moat.toml"
				*flagWatch = true
				*flagSeed = 99
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.Path != "moat.toml" || !cfg.Scene.Watch {
					t.Errorf("unexpected scene config %+v", cfg.Scene)
				}
				if cfg.Waves.Seed != 99 {
					t.Errorf("expected seed 99, got %d", cfg.Waves.Seed)
				}
			},
			teardown: func() {
				*flagScene = ""
				*flagWatch = false
				*flagSeed = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("frames:\n  count: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject a single frame slot")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel: "DEBUG",
		EnvHeadless: "true",
		EnvScene:    "moat.yaml",
		EnvStrategy: "countdown",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := applyEnv(cfg, lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	if !cfg.Headless.Enabled {
		t.Error("expected headless from environment")
	}
	if cfg.Scene.Path != "moat.yaml" {
		t.Errorf("expected scene moat.yaml, got %s", cfg.Scene.Path)
	}
	if cfg.Frames.DirtyStrategy != "countdown" {
		t.Errorf("expected countdown strategy, got %s", cfg.Frames.DirtyStrategy)
	}

	env = map[string]string{EnvHeadless: "sometimes"}
	if err := applyEnv(Default(), lookup); err == nil {
		t.Error("expected error for unparsable headless value")
	}
}

func TestLoadEnvBetweenFileAndFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "logging:\n  level: warn\nscene:\n  path: file.yaml\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv(EnvConfig, configPath)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvScene, "env.yaml")
	*flagScene = "flag.yaml"
	defer func() { *flagScene = "" }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env level error over file, got %s", cfg.Logging.Level)
	}
	if cfg.Scene.Path != "flag.yaml" {
		t.Errorf("expected flag scene over env, got %s", cfg.Scene.Path)
	}
}
