package loader

import (
	"io"
)

// loaderBackend decodes one asset file format into an Asset.
type loaderBackend interface {
	// Load decodes the asset at the given path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Asset: the decoded asset
	//   - error: error if loading fails
	Load(path string) (*Asset, error)

	// LoadReader decodes an asset from a stream.
	//
	// Parameters:
	//   - name: the asset name
	//   - r: the reader providing the asset data
	//
	// Returns:
	//   - *Asset: the decoded asset
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Asset, error)
}
