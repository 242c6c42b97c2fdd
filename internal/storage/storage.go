// Package storage keeps uploaded files on local disk.
package storage

import (
	"context"       // Cancellation
	"errors"        // Error inspection
	"os"            // File I/O
	"path"          // URL paths
	"path/filepath" // Disk paths
	"strings"       // Extension handling

	"github.com/google/uuid" // Collision free file names
)

// FileStore stores blobs and hands back a public path
type FileStore interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// Local writes files under Root and serves them below PublicPrefix
type Local struct {
	Root         string // Directory on disk
	PublicPrefix string // URL prefix, e.g. /uploads/properties
}

// NewLocal creates the root directory and returns a store for it
func NewLocal(root, publicPrefix string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{Root: root, PublicPrefix: publicPrefix}, nil
}

// Store writes data under a random name keeping the original extension
func (l *Local) Store(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fileName := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	if err := os.WriteFile(filepath.Join(l.Root, fileName), data, 0o644); err != nil {
		return "", err
	}
	return path.Join(l.PublicPrefix, fileName), nil
}

// Delete removes the file behind a public path; missing files are not an error
func (l *Local) Delete(ctx context.Context, publicPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fileName := path.Base(publicPath) // Never follow directories out of Root
	if fileName == "." || fileName == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(l.Root, fileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
