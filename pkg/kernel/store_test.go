package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	o := PaginationOptions{}.Normalize(20, 100)
	require.Equal(t, PaginationOptions{Page: 1, PageSize: 20}, o)
	require.Equal(t, 0, o.Offset())

	o = PaginationOptions{Page: 3, PageSize: 500}.Normalize(20, 100)
	require.Equal(t, 100, o.PageSize)
	require.Equal(t, 200, o.Offset())
}

func TestNewPaginated(t *testing.T) {
	t.Parallel()

	p := NewPaginated([]string{"a", "b"}, PaginationOptions{Page: 2, PageSize: 2}, 5)
	require.Equal(t, 3, p.Page.Pages)
	require.True(t, p.HasNext())
	require.True(t, p.HasPrevious())
	require.False(t, p.Empty)

	empty := NewPaginated[string](nil, PaginationOptions{Page: 1, PageSize: 10}, 0)
	require.NotNil(t, empty.Items)
	require.True(t, empty.Empty)
	require.False(t, empty.HasNext())
	require.False(t, empty.HasPrevious())
}
