package engine

import (
	"github.com/Carmen-Shannon/oxy-avatar/engine/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/config"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/pointer"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-avatar/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// WindowOptions translates the window section of a validated config.
func WindowOptions(cfg *config.Config) []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithTransparentFramebuffer(cfg.Window.Transparent),
		window.WithDecorated(cfg.Window.Decorated),
	}
}

// RendererOptions translates the window section of a validated config into surface settings.
// A transparent window clears to fully transparent black so only particles are visible.
func RendererOptions(cfg *config.Config) []renderer.RendererBuilderOption {
	mode := renderer.PresentModeUncapped
	if cfg.Window.VSync {
		mode = renderer.PresentModeVSync
	}
	msaa := renderer.MSAA4x
	if cfg.Window.MSAA == 1 {
		msaa = renderer.MSAAOff
	}
	opts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(msaa),
	}
	if cfg.Window.Transparent {
		opts = append(opts, renderer.WithClearColor(wgpu.Color{}))
	}
	return opts
}

// AvatarOptions translates the avatar, particle, pointer and animation sections of a
// validated config. The palette must already have passed Validate.
//
// Parameters:
//   - cfg: the validated config
//
// Returns:
//   - []avatar.AvatarBuilderOption: options for avatar.NewAvatar
func AvatarOptions(cfg *config.Config) []avatar.AvatarBuilderOption {
	p := cfg.Particles
	samplerOpts := []particle.SamplerBuilderOption{
		particle.WithBaseSize(p.BaseSize),
		particle.WithSizeRange(p.SizeMin, p.SizeMax),
		particle.WithOpacityRange(p.OpacityMin, p.OpacityMax),
		particle.WithSeed(p.Seed),
		particle.WithWorkers(p.Workers),
	}
	if hex, err := p.PaletteHex(); err == nil && len(hex) > 0 {
		samplerOpts = append(samplerOpts, particle.WithPalette(particle.PaletteFromHex(hex)...))
	}

	opts := []avatar.AvatarBuilderOption{
		avatar.WithPlatform(cfg.PlatformValue()),
		avatar.WithDensity(p.Density),
		avatar.WithBreathing(cfg.Avatar.Breathing),
		avatar.WithHeadTracking(cfg.Avatar.HeadTracking),
		avatar.WithRepulsion(cfg.Avatar.Repulsion),
		avatar.WithSamplerOptions(samplerOpts...),
		avatar.WithRenderBufferOptions(
			particle.WithJitterAmplitude(p.Jitter),
			particle.WithPulseDepth(p.Pulse),
			particle.WithPointScale(p.PointScale),
		),
		avatar.WithTrackerOptions(
			pointer.WithRadius(cfg.Pointer.Radius),
			pointer.WithStrength(cfg.Pointer.Strength),
			pointer.WithSizeBoost(cfg.Pointer.SizeBoost),
			pointer.WithAim(cfg.Pointer.AimScale, cfg.Pointer.AimDistance),
		),
		avatar.WithStateMachineOptions(
			animator.WithIdleClip(cfg.Animation.IdleClip),
			animator.WithCrossfadeDuration(cfg.Animation.Crossfade),
		),
	}
	if o := cfg.Avatar.Offset; len(o) == 3 {
		opts = append(opts, avatar.WithOffset(mgl32.Vec3{o[0], o[1], o[2]}))
	}
	return opts
}
