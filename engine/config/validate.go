package config

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"go.uber.org/zap"
)

// Validate repairs out-of-range values and rejects settings that cannot be repaired.
// Densities are clamped into (0, 1]. Non-positive sizes, radii and durations are restored to
// their defaults. Each repair is logged at Warn.
//
// Returns:
//   - error: an error for an unknown platform, an inverted range, or a malformed palette
func (c *Config) Validate() error {
	def := Default()
	log := logger.Named("config")

	restoreFloat := func(field string, v *float32, fallback float32) {
		if *v <= 0 {
			log.Warn("non-positive value, using default",
				zap.String("field", field), zap.Float32("value", *v), zap.Float32("default", fallback))
			*v = fallback
		}
	}
	restoreInt := func(field string, v *int, fallback int) {
		if *v <= 0 {
			log.Warn("non-positive value, using default",
				zap.String("field", field), zap.Int("value", *v), zap.Int("default", fallback))
			*v = fallback
		}
	}

	restoreInt("window.width", &c.Window.Width, def.Window.Width)
	restoreInt("window.height", &c.Window.Height, def.Window.Height)
	if c.Window.MSAA != 1 && c.Window.MSAA != 4 {
		log.Warn("unsupported msaa sample count, using default", zap.Int("msaa", c.Window.MSAA))
		c.Window.MSAA = def.Window.MSAA
	}

	switch strings.ToLower(strings.TrimSpace(c.Avatar.Platform)) {
	case "", "desktop":
		c.Avatar.Platform = "desktop"
	case "mobile":
		c.Avatar.Platform = "mobile"
	default:
		return fmt.Errorf("avatar.platform %q: want desktop or mobile", c.Avatar.Platform)
	}
	if n := len(c.Avatar.Offset); n != 0 && n != 3 {
		return fmt.Errorf("avatar.offset: got %d components, want 3", n)
	}

	p := &c.Particles
	restoreFloat("particles.density", &p.Density, def.Particles.Density)
	if p.Density > 1 {
		log.Warn("density above 1, clamping", zap.Float32("density", p.Density))
		p.Density = 1
	}
	restoreFloat("particles.base_size", &p.BaseSize, def.Particles.BaseSize)
	restoreFloat("particles.size_min", &p.SizeMin, def.Particles.SizeMin)
	restoreFloat("particles.size_max", &p.SizeMax, def.Particles.SizeMax)
	restoreFloat("particles.point_scale", &p.PointScale, def.Particles.PointScale)
	if p.SizeMin > p.SizeMax {
		return fmt.Errorf("particles.size_min %v exceeds size_max %v", p.SizeMin, p.SizeMax)
	}
	if p.OpacityMin < 0 || p.OpacityMax > 1 || p.OpacityMin > p.OpacityMax {
		return fmt.Errorf("particles opacity range [%v, %v]: want 0 <= min <= max <= 1", p.OpacityMin, p.OpacityMax)
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Pulse < 0 || p.Pulse > 1 {
		log.Warn("pulse depth outside [0, 1], using default", zap.Float32("pulse", p.Pulse))
		p.Pulse = def.Particles.Pulse
	}
	if len(p.Palette) == 0 {
		p.Palette = def.Particles.Palette
	}
	if _, err := p.PaletteHex(); err != nil {
		return fmt.Errorf("particles.palette: %w", err)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}

	restoreFloat("pointer.radius", &c.Pointer.Radius, def.Pointer.Radius)
	restoreFloat("pointer.aim_distance", &c.Pointer.AimDistance, def.Pointer.AimDistance)
	restoreFloat("pointer.aim_scale", &c.Pointer.AimScale, def.Pointer.AimScale)
	if c.Pointer.Strength < 0 {
		c.Pointer.Strength = def.Pointer.Strength
	}
	if c.Pointer.SizeBoost < 0 {
		c.Pointer.SizeBoost = def.Pointer.SizeBoost
	}

	restoreFloat("animation.crossfade", &c.Animation.Crossfade, def.Animation.Crossfade)
	if strings.TrimSpace(c.Animation.IdleClip) == "" {
		c.Animation.IdleClip = def.Animation.IdleClip
	}

	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	return nil
}
