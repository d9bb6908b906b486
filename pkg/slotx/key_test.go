package slotx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type point struct{ X, Y int }

type boxed struct{ V any }

func TestKeySame(t *testing.T) {
	t.Parallel()

	shared := []int{1, 2, 3}
	m := map[string]int{"a": 1}
	p := &point{1, 2}
	fn := func() {}
	ch := make(chan int)

	cases := []struct {
		name string
		a, b Key
		same bool
	}{
		{"nil and empty", nil, Key{}, true},
		{"scalars", Key{"q", 1, true}, Key{"q", 1, true}, true},
		{"length differs", Key{"q"}, Key{"q", 1}, false},
		{"order matters", Key{1, 2}, Key{2, 1}, false},
		{"type differs", Key{int32(1)}, Key{int64(1)}, false},
		{"structs by value", Key{point{1, 2}}, Key{point{1, 2}}, true},
		{"same slice", Key{shared}, Key{shared}, true},
		{"equal but distinct slices", Key{[]int{1, 2, 3}}, Key{[]int{1, 2, 3}}, false},
		{"resliced", Key{shared}, Key{shared[:2]}, false},
		{"same map", Key{m}, Key{m}, true},
		{"distinct maps", Key{map[string]int{"a": 1}}, Key{map[string]int{"a": 1}}, false},
		{"same pointer", Key{p}, Key{p}, true},
		{"distinct pointers", Key{&point{1, 2}}, Key{&point{1, 2}}, false},
		{"same chan", Key{ch}, Key{ch}, true},
		{"funcs never same", Key{fn}, Key{fn}, false},
		{"nil values", Key{nil}, Key{nil}, true},
		{"nil vs value", Key{nil}, Key{0}, false},
		{"NaN is itself", Key{math.NaN()}, Key{math.NaN()}, true},
		{"signed zero", Key{0.0}, Key{math.Copysign(0, -1)}, false},
		{"uncomparable in interface field", Key{boxed{[]int{1}}}, Key{boxed{[]int{1}}}, false},
		{"comparable in interface field", Key{boxed{"x"}}, Key{boxed{"x"}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.same, tc.a.Same(tc.b))
			require.Equal(t, tc.same, tc.b.Same(tc.a))
		})
	}
}

func TestKeyCloneIsIndependent(t *testing.T) {
	t.Parallel()

	k := Key{"a", 1}
	c := k.clone()
	c[0] = "b"
	require.Equal(t, "a", k[0])
	require.Nil(t, Key(nil).clone())
}
