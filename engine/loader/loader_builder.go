package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithRequireSkin makes Load fail with ErrNoSkinnedMesh for assets without a skin.
//
// Parameters:
//   - require: true to reject static assets
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithRequireSkin(require bool) LoaderBuilderOption {
	return func(l *loader) {
		l.requireSkin = require
	}
}

// WithAsset pre-populates the asset cache.
//
// Parameters:
//   - key: the cache key for the asset
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(key string, asset *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.assetCache[key] = asset
	}
}
