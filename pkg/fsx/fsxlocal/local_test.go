package fsxlocal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/slotx/pkg/fsx"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *LocalFileSystem {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "b.md"), []byte("# B"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "a.json"), []byte(`{"a":1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "root.txt"), []byte("hello"), 0644))

	l, err := NewLocalFileSystem(dir)
	require.NoError(t, err)
	return l
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	data, err := l.ReadFile(ctx, "root.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = l.ReadFile(ctx, "/docs/../root.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	_, err = l.ReadFile(ctx, "missing.txt")
	require.True(t, fsx.ErrNotFound.Is(err))
}

func TestPathsCannotEscapeRoot(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	for _, p := range []string{"..", "../etc/passwd", "docs/../../x", "..\\x"} {
		_, err := l.ReadFile(ctx, p)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)

		_, err = l.Exists(ctx, p)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)
	}
}

func TestListSortedWithPaths(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	entries, err := l.List(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a.json", entries[0].Name)
	require.Equal(t, "docs/a.json", entries[0].Path)
	require.Equal(t, "application/json", entries[0].ContentType)
	require.Equal(t, "text/markdown", entries[1].ContentType)

	root, err := l.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 2)
	require.True(t, root[0].IsDir)
	require.Empty(t, root[0].ContentType)

	_, err = l.List(ctx, "root.txt")
	require.True(t, fsx.ErrNotDir.Is(err))

	_, err = l.List(ctx, "nope")
	require.True(t, fsx.ErrNotFound.Is(err))
}

func TestStatAndExists(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	info, err := l.Stat(ctx, "root.txt")
	require.NoError(t, err)
	require.Equal(t, int64(5), info.Size)
	require.Equal(t, "root.txt", info.Path)
	require.False(t, info.IsDir)

	ok, err := l.Exists(ctx, "docs")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Exists(ctx, "docs/c.md")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.ReadFile(ctx, "root.txt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSymlinkOutsideRootIsRefused(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(l.BasePath(), "link")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(l.BasePath(), "secret.txt")))

	for _, p := range []string{"link", "link/secret.txt", "link/missing.txt", "secret.txt"} {
		_, err := l.ReadFile(ctx, p)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)

		_, err = l.ReadHead(ctx, p, 3)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)

		_, err = l.Stat(ctx, p)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)

		_, err = l.Exists(ctx, p)
		require.True(t, fsx.ErrOutsideRoot.Is(err), p)
	}

	_, err := l.List(ctx, "link")
	require.True(t, fsx.ErrOutsideRoot.Is(err))
}

func TestSymlinkInsideRootIsFollowed(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.Symlink(filepath.Join(l.BasePath(), "docs"), filepath.Join(l.BasePath(), "alias")))

	data, err := l.ReadFile(ctx, "alias/b.md")
	require.NoError(t, err)
	require.Equal(t, "# B", string(data))

	_, err = l.ReadFile(ctx, "alias/missing.md")
	require.True(t, fsx.ErrNotFound.Is(err))
}

func TestReadHead(t *testing.T) {
	t.Parallel()
	l := newTestFS(t)
	ctx := context.Background()

	data, err := l.ReadHead(ctx, "root.txt", 3)
	require.NoError(t, err)
	require.Equal(t, "hel", string(data))

	data, err = l.ReadHead(ctx, "root.txt", 100)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = l.ReadHead(ctx, "root.txt", 0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	_, err = l.ReadHead(ctx, "missing.txt", 3)
	require.True(t, fsx.ErrNotFound.Is(err))
}
