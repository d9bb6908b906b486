// Package fsx is the read side of a file store. Operations tracked by slotx
// read through it so the backing store can be swapped in tests.
package fsx

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/slotx/pkg/errx"
)

// FileInfo describes one file or directory.
type FileInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	IsDir       bool      `json:"is_dir"`
	ContentType string    `json:"content_type,omitempty"`
}

// FileReader provides read-only operations. Paths are slash separated and
// relative to the store's root.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// ReadHead returns at most the first n bytes of a file. n <= 0 reads the
	// whole file.
	ReadHead(ctx context.Context, path string, n int64) ([]byte, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound    = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	ErrOutsideRoot = fsxErrors.Register("OUTSIDE_ROOT", errx.TypeValidation, http.StatusBadRequest, "Path escapes the storage root")
	ErrRead        = fsxErrors.Register("READ", errx.TypeInternal, http.StatusInternalServerError, "Failed to read from storage")
	ErrNotDir      = fsxErrors.Register("NOT_DIR", errx.TypeValidation, http.StatusBadRequest, "Path is not a directory")
)

// NotFound builds an ErrNotFound error for path.
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// OutsideRoot builds an ErrOutsideRoot error for path.
func OutsideRoot(path string) *errx.Error {
	return fsxErrors.New(ErrOutsideRoot).WithDetail("path", path)
}

// ReadFailed wraps a backend failure for path.
func ReadFailed(path string, err error) *errx.Error {
	return fsxErrors.NewWithCause(ErrRead, err).WithDetail("path", path)
}

// NotDir builds an ErrNotDir error for path.
func NotDir(path string) *errx.Error {
	return fsxErrors.New(ErrNotDir).WithDetail("path", path)
}
