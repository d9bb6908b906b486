package opsx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/slotx/pkg/fsx"
	"github.com/Abraxas-365/slotx/pkg/fsx/fsxlocal"
	"github.com/stretchr/testify/require"
)

func newPreviewFS(t *testing.T) fsx.FileReader {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("héllo world"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	l, err := fsxlocal.NewLocalFileSystem(dir)
	require.NoError(t, err)
	return l
}

func TestPreviewFileTruncates(t *testing.T) {
	t.Parallel()

	op := Preview(newPreviewFS(t), 2)
	res, err := op(context.Background(), PreviewArgs{Path: "notes.txt"})
	require.NoError(t, err)
	// "é" is two bytes starting at offset 1; a 2-byte cut would split it.
	require.Equal(t, "h", res.Content)
	require.True(t, res.Truncated)
	require.Equal(t, "notes.txt", res.Info.Name)
}

// headRecorder remembers the sizes Preview asks for.
type headRecorder struct {
	fsx.FileReader
	sizes []int64
}

func (h *headRecorder) ReadHead(ctx context.Context, path string, n int64) ([]byte, error) {
	h.sizes = append(h.sizes, n)
	return h.FileReader.ReadHead(ctx, path, n)
}

func TestPreviewReadsOnlyTheHead(t *testing.T) {
	t.Parallel()

	rec := &headRecorder{FileReader: newPreviewFS(t)}

	res, err := Preview(rec, 5)(context.Background(), PreviewArgs{Path: "notes.txt"})
	require.NoError(t, err)
	require.Equal(t, "héll", res.Content)
	require.True(t, res.Truncated)

	res, err = Preview(rec, 12)(context.Background(), PreviewArgs{Path: "notes.txt"})
	require.NoError(t, err)
	require.Equal(t, "héllo world", res.Content)
	require.False(t, res.Truncated)

	_, err = Preview(rec, 0)(context.Background(), PreviewArgs{Path: "notes.txt"})
	require.NoError(t, err)

	require.Equal(t, []int64{6, 13, 0}, rec.sizes)
}

func TestPreviewFileWithoutLimit(t *testing.T) {
	t.Parallel()

	op := Preview(newPreviewFS(t), 0)
	res, err := op(context.Background(), PreviewArgs{Path: "notes.txt"})
	require.NoError(t, err)
	require.Equal(t, "héllo world", res.Content)
	require.False(t, res.Truncated)
}

func TestPreviewDirectoryLists(t *testing.T) {
	t.Parallel()

	op := Preview(newPreviewFS(t), 10)
	res, err := op(context.Background(), PreviewArgs{Path: "/"})
	require.NoError(t, err)
	require.True(t, res.Info.IsDir)
	require.Len(t, res.Entries, 2)
	require.Equal(t, "notes.txt", res.Entries[0].Name)
	require.Equal(t, "sub", res.Entries[1].Name)
}

func TestPreviewMissingFile(t *testing.T) {
	t.Parallel()

	op := Preview(newPreviewFS(t), 10)
	_, err := op(context.Background(), PreviewArgs{Path: "gone.txt"})
	require.True(t, fsx.ErrNotFound.Is(err))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in    string
		limit int
		want  string
		cut   bool
	}{
		{"abc", 5, "abc", false},
		{"abc", 3, "abc", false},
		{"abcd", 3, "abc", true},
		{"日本", 4, "日", true},
		{"日本", 2, "", true},
	}
	for _, tc := range cases {
		got, cut := truncate([]byte(tc.in), tc.limit)
		require.Equal(t, tc.want, got, tc.in)
		require.Equal(t, tc.cut, cut, tc.in)
	}
}
