package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Local stores artifacts on the local filesystem under a root directory and
// serves them over the files route.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates a local store. root is the directory artifacts are written
// under; baseURL is the URL prefix they are served from (e.g.
// "http://localhost:8467/files").
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the storage root directory.
func (l *Local) Root() string {
	return l.root
}

// Put writes data under the storage root and returns its public URL.
func (l *Local) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(clean, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return l.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/"), nil
}

// Handler serves the stored files over HTTP.
func (l *Local) Handler() http.Handler {
	return http.FileServer(http.Dir(l.root))
}

// resolve maps a relative artifact path to an absolute path under root,
// rejecting traversal outside of it.
func (l *Local) resolve(path string) (string, error) {
	clean := filepath.Join(l.root, filepath.FromSlash(path))
	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return "", err
	}
	cleanAbs, err := filepath.Abs(clean)
	if err != nil {
		return "", err
	}
	if cleanAbs != rootAbs && !strings.HasPrefix(cleanAbs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact path: %s", path)
	}
	return cleanAbs, nil
}

// Verify interface
var _ Store = (*Local)(nil)
