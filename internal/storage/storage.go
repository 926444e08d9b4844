// Package storage persists generated artifacts (EPUB, HTML, cover images)
// and returns the public URL they are served from.
package storage

import "context"

// Store writes artifact bytes to durable storage.
type Store interface {
	// Put writes data at the given relative path and returns the public URL.
	// Parent directories are created as needed; an existing object at the
	// same path is overwritten.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
