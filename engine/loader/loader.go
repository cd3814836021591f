package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the asset file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// ErrNoSkinnedMesh is returned when a loader that requires a skin decodes an asset without one.
var ErrNoSkinnedMesh = errors.New("asset has no skinned mesh")

// Asset is a decoded avatar: the rigged mesh and the animation clips that target its skeleton.
type Asset struct {
	// Name is the cache key the asset was loaded under.
	Name string

	// Mesh is the rigged mesh. Mesh.Skeleton is nil for static assets.
	Mesh *model.RiggedMesh

	// Clips are the animation clips in document order.
	Clips []*model.AnimationClip
}

// ClipNames returns the names of the asset's clips in document order.
func (a *Asset) ClipNames() []string {
	names := make([]string, len(a.Clips))
	for i, c := range a.Clips {
		names[i] = c.Name
	}
	return names
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*Asset

	backend loaderBackend

	requireSkin bool

	log *zap.Logger
}

// Loader decodes avatar assets and caches them by path or name.
type Loader interface {
	// Load decodes an asset file and caches the result. A cached asset is returned as is.
	// The backend is selected from the file extension (.gltf/.glb).
	//
	// Parameters:
	//   - path: the file path to the asset
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if the format is unsupported, decoding fails, or a required skin is missing
	Load(path string) (*Asset, error)

	// LoadReader decodes an asset from a stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the asset
	//   - r: the reader providing the asset data
	//
	// Returns:
	//   - *Asset: the loaded asset
	//   - error: error if decoding fails or a required skin is missing
	LoadReader(name string, r io.Reader) (*Asset, error)

	// Get retrieves a cached asset by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(name string) *Asset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		assetCache: make(map[string]*Asset),
		log:        logger.Named("loader"),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Asset, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	asset, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, asset)
}

func (l *loader) LoadReader(name string, r io.Reader) (*Asset, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	asset, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, asset)
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for k, v := range l.assetCache {
		result[k] = v
	}
	return result
}

// store validates a decoded asset and caches it.
func (l *loader) store(key string, asset *Asset) (*Asset, error) {
	if asset.Mesh.Skeleton == nil {
		if l.requireSkin {
			return nil, fmt.Errorf("%s: %w", key, ErrNoSkinnedMesh)
		}
		l.log.Warn("asset has no skin, particles will follow the rest pose", zap.String("asset", key))
	}
	if asset.Mesh.VertexCount() == 0 {
		l.log.Warn("asset has no vertices", zap.String("asset", key))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	asset.Name = key
	l.assetCache[key] = asset
	return asset, nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported asset format: %s", ext)
	}
}
