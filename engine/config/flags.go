package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging and the FPS profiler")
	flagAsset    = flag.String("asset", "", "Path to the avatar glTF/GLB asset")
	flagPlatform = flag.String("platform", "", "Avatar placement: desktop or mobile")
	flagDensity  = flag.Float64("density", 0, "Fraction of mesh vertices sampled as particles, in (0, 1]")
	flagWidth    = flag.Int("width", 0, "Window width")
	flagHeight   = flag.Int("height", 0, "Window height")
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
		cfg.Window.ShowFPS = true
	}
	if *flagAsset != "" {
		cfg.Avatar.Asset = *flagAsset
	}
	if *flagPlatform != "" {
		cfg.Avatar.Platform = *flagPlatform
	}
	if *flagDensity > 0 {
		cfg.Particles.Density = float32(*flagDensity)
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
