// Package storage exposes a local content tree (index.json, issue
// metadata, article texts, images) as a read-only file provider.
package storage

// Provider is the interface for content file access.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// List returns every file under dir whose name ends with ext
	// (relative to the root). An empty ext matches all files.
	List(dir, ext string) ([]File, error)
	// Root returns the absolute root directory.
	Root() string
}
