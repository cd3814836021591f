// Package config handles avatar viewer configuration loading and management.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-avatar/engine/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/pointer"
)

// Config holds all viewer settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Avatar    AvatarConfig    `yaml:"avatar"`
	Particles ParticleConfig  `yaml:"particles"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Animation AnimationConfig `yaml:"animation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds window and surface settings.
type WindowConfig struct {
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Transparent bool   `yaml:"transparent"`
	Decorated   bool   `yaml:"decorated"`
	VSync       bool   `yaml:"vsync"`
	MSAA        int    `yaml:"msaa"` // 1 or 4
	ShowFPS     bool   `yaml:"show_fps"`
}

// AvatarConfig holds the asset and per-avatar behaviour toggles.
type AvatarConfig struct {
	Asset        string    `yaml:"asset"`
	Platform     string    `yaml:"platform"` // "desktop" or "mobile"
	Offset       []float32 `yaml:"offset,omitempty"`
	Breathing    bool      `yaml:"breathing"`
	HeadTracking bool      `yaml:"head_tracking"`
	Repulsion    bool      `yaml:"repulsion"`
}

// ParticleConfig holds sampling and render-buffer settings.
type ParticleConfig struct {
	Density    float32  `yaml:"density"`
	BaseSize   float32  `yaml:"base_size"`
	SizeMin    float32  `yaml:"size_min"`
	SizeMax    float32  `yaml:"size_max"`
	OpacityMin float32  `yaml:"opacity_min"`
	OpacityMax float32  `yaml:"opacity_max"`
	Palette    []string `yaml:"palette"` // "#RRGGBB"
	Seed       int64    `yaml:"seed"`
	Workers    int      `yaml:"workers"`
	Jitter     float32  `yaml:"jitter"`
	Pulse      float32  `yaml:"pulse"`
	PointScale float32  `yaml:"point_scale"`
}

// PointerConfig holds repulsion and head-aim settings.
type PointerConfig struct {
	Radius      float32 `yaml:"radius"`
	Strength    float32 `yaml:"strength"`
	SizeBoost   float32 `yaml:"size_boost"`
	AimDistance float32 `yaml:"aim_distance"`
	AimScale    float32 `yaml:"aim_scale"`
}

// AnimationConfig holds state machine settings.
type AnimationConfig struct {
	IdleClip  string  `yaml:"idle_clip"`
	Crossfade float32 `yaml:"crossfade"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with the stock avatar settings.
func Default() *Config {
	palette := make([]string, len(particle.DefaultPaletteHex))
	for i, h := range particle.DefaultPaletteHex {
		palette[i] = fmt.Sprintf("#%06X", h)
	}

	return &Config{
		Window: WindowConfig{
			Title:     "Avatar",
			Width:     800,
			Height:    800,
			Decorated: true,
			VSync:     true,
			MSAA:      4,
		},
		Avatar: AvatarConfig{
			Asset:        "avatar.glb",
			Platform:     animator.PlatformDesktop.String(),
			Breathing:    true,
			HeadTracking: true,
			Repulsion:    true,
		},
		Particles: ParticleConfig{
			Density:    particle.DefaultDensity,
			BaseSize:   particle.DefaultBaseSize,
			SizeMin:    particle.DefaultSizeMin,
			SizeMax:    particle.DefaultSizeMax,
			OpacityMin: particle.DefaultOpacityMin,
			OpacityMax: particle.DefaultOpacityMax,
			Palette:    palette,
			Seed:       1,
			Workers:    4,
			Jitter:     particle.DefaultJitterAmplitude,
			Pulse:      particle.DefaultPulseDepth,
			PointScale: particle.DefaultPointScale,
		},
		Pointer: PointerConfig{
			Radius:      pointer.DefaultRadius,
			Strength:    pointer.DefaultStrength,
			SizeBoost:   pointer.DefaultSizeBoost,
			AimDistance: pointer.DefaultAimDistance,
			AimScale:    pointer.DefaultAimScale,
		},
		Animation: AnimationConfig{
			IdleClip:  "idle",
			Crossfade: animator.DefaultCrossfadeDuration,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// PlatformValue returns the parsed avatar platform.
func (c *Config) PlatformValue() animator.Platform {
	return animator.ParsePlatform(c.Avatar.Platform)
}

// PaletteHex parses the particle palette into packed 0xRRGGBB values.
//
// Returns:
//   - []uint32: the parsed colours
//   - error: an error naming the first malformed entry
func (p *ParticleConfig) PaletteHex() ([]uint32, error) {
	out := make([]uint32, 0, len(p.Palette))
	for _, s := range p.Palette {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 16, 32)
		if err != nil || v > 0xFFFFFF {
			return nil, fmt.Errorf("palette colour %q: want #RRGGBB", s)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
