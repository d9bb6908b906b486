package fsxlocal

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Abraxas-365/slotx/pkg/fsx"
)

// LocalFileSystem implements fsx.FileReader over a directory on local disk.
// Paths that resolve outside the directory are refused.
type LocalFileSystem struct {
	basePath string
}

var _ fsx.FileReader = (*LocalFileSystem)(nil)

// NewLocalFileSystem roots a reader at basePath, creating it if needed.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

// BasePath returns the absolute root directory.
func (l *LocalFileSystem) BasePath() string { return l.basePath }

func (l *LocalFileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, l.mapErr(name, err)
	}
	return data, nil
}

func (l *LocalFileSystem) ReadHead(ctx context.Context, name string, n int64) ([]byte, error) {
	if n <= 0 {
		return l.ReadFile(ctx, name)
	}
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, l.mapErr(name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, n))
	if err != nil {
		return nil, fsx.ReadFailed(name, err)
	}
	return data, nil
}

func (l *LocalFileSystem) Stat(ctx context.Context, name string) (fsx.FileInfo, error) {
	full, err := l.resolve(name)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return fsx.FileInfo{}, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return fsx.FileInfo{}, l.mapErr(name, err)
	}
	return toFileInfo(clean(name), info), nil
}

// List returns the entries of a directory sorted by name. Entries that vanish
// while listing are skipped.
func (l *LocalFileSystem) List(ctx context.Context, name string) ([]fsx.FileInfo, error) {
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, l.mapErr(name, err)
	}
	if !info.IsDir() {
		return nil, fsx.NotDir(name)
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, l.mapErr(name, err)
	}

	dir := clean(name)
	out := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, toFileInfo(path.Join(dir, entry.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *LocalFileSystem) Exists(ctx context.Context, name string) (bool, error) {
	full, err := l.resolve(name)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fsx.ReadFailed(name, err)
	}
	return true, nil
}

// resolve maps a slash separated path under the root to a disk path. Symlinks
// are followed before the containment check, so a link cannot lead out of the
// root.
func (l *LocalFileSystem) resolve(name string) (string, error) {
	rel := clean(name)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fsx.OutsideRoot(name)
	}
	full := filepath.Join(l.basePath, filepath.FromSlash(rel))
	if !l.within(full) {
		return "", fsx.OutsideRoot(name)
	}

	real, err := evalExisting(full)
	if err != nil {
		return "", fsx.ReadFailed(name, err)
	}
	if !l.within(real) {
		return "", fsx.OutsideRoot(name)
	}
	return real, nil
}

func (l *LocalFileSystem) within(p string) bool {
	return p == l.basePath || strings.HasPrefix(p, l.basePath+string(filepath.Separator))
}

// evalExisting resolves symlinks in the longest existing prefix of p and
// appends the missing tail unchanged.
func evalExisting(p string) (string, error) {
	var tail []string
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{real}, tail...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p, nil
		}
		tail = append([]string{filepath.Base(p)}, tail...)
		p = parent
	}
}

func (l *LocalFileSystem) mapErr(name string, err error) error {
	if os.IsNotExist(err) {
		return fsx.NotFound(name)
	}
	return fsx.ReadFailed(name, err)
}

// clean treats name as relative to the root; a leading slash does not reach
// the host's root directory.
func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Clean(strings.TrimLeft(name, "/"))
}

func toFileInfo(rel string, info fs.FileInfo) fsx.FileInfo {
	fi := fsx.FileInfo{
		Name:    info.Name(),
		Path:    rel,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	if !fi.IsDir {
		fi.ContentType = detectContentType(info.Name())
	}
	return fi
}

// detectContentType detects MIME type from file extension
func detectContentType(name string) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".md":
		return "text/markdown"
	case "":
		return "application/octet-stream"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
